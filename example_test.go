package dagflow_test

import (
	"context"
	"fmt"

	"github.com/avelin/dagflow"
)

func Example() {
	eng := dagflow.NewInMemoryEngine()

	_ = eng.RegisterHandler("price", func(ctx context.Context, in dagflow.TaskInput) (any, error) {
		return map[string]any{"total": 42.0}, nil
	})
	_ = eng.RegisterHandler("approve", func(ctx context.Context, in dagflow.TaskInput) (any, error) {
		return "approved", nil
	})

	defID := dagflow.NewDefinition("quote").
		Task("price", "price",
			dagflow.MapOutput("quote.total", "total"),
		).
		Task("approve", "approve",
			dagflow.DependsOn("price"),
			dagflow.When("$.quote.total", "gt", 10),
			dagflow.MapOutput("quote.decision", "result"),
		).
		MustRegister(eng)

	inst, err := dagflow.Run(context.Background(), eng, defID, nil)
	if err != nil {
		panic(err)
	}

	quote := inst.Data["quote"].(map[string]any)
	fmt.Println(inst.Status)
	fmt.Println(quote["total"], quote["decision"])
	// Output:
	// completed
	// 42 approved
}
