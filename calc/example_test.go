package calc_test

import (
	"context"
	"fmt"

	"github.com/jonwraymond/surcharge/calc"
)

func ExampleCalculator_Circular() {
	c := calc.New()
	p, err := c.Circular(context.Background(), 100, 2, 0, 0, []float64{4, 2})
	if err != nil {
		fmt.Println(err)
		return
	}
	for i, z := range p.Z {
		fmt.Printf("z=%.0f sigma=%.2f\n", z, p.Sigma[i])
	}
	// Output:
	// z=2 sigma=64.64
	// z=4 sigma=28.45
}
