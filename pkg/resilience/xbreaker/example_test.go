package xbreaker_test

import (
	"errors"
	"fmt"
	"time"

	"github.com/omeyang/reskit/pkg/resilience/xbreaker"
)

// ExampleNewBreaker 演示两段式熔断器的基本用法
func ExampleNewBreaker() {
	breaker := xbreaker.NewBreaker("currency-api",
		xbreaker.WithFailureThreshold(3),
		xbreaker.WithOpenTimeout(30*time.Second),
	)

	callRemote := func() error { return nil }

	// 先申请许可，再上报结果
	if err := breaker.Allow(); err != nil {
		fmt.Println("熔断中:", err)
		return
	}

	if err := callRemote(); err != nil {
		breaker.RecordFailure()
		fmt.Println("调用失败")
		return
	}
	breaker.RecordSuccess()
	fmt.Println("调用成功")
	// Output: 调用成功
}

// ExampleIsOpen 演示熔断拒绝的识别与降级
func ExampleIsOpen() {
	breaker := xbreaker.NewBreaker("weather-api",
		xbreaker.WithFailureThreshold(1),
	)

	// 一次失败即熔断
	breaker.RecordFailure()

	err := breaker.Allow()
	if xbreaker.IsOpen(err) {
		var oe *xbreaker.OpenError
		errors.As(err, &oe)
		fmt.Printf("熔断器 %s 打开，走降级路径\n", oe.Name)
	}
	// Output: 熔断器 weather-api 打开，走降级路径
}
