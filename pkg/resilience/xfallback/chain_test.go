package xfallback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failing 永远失败的提供者。
type failing struct {
	name string
	err  error
}

func (p *failing) Name() string { return p.name }

func (p *failing) Resolve(_ context.Context, _ string) (string, error) {
	return "", p.err
}

func TestChainResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("首个成功者胜出", func(t *testing.T) {
		chain := NewChain[string](
			&failing{name: "primary-mirror", err: errors.New("mirror down")},
			NewSource("secondary-mirror", func(ctx context.Context, key string) (string, error) {
				return "from-secondary", nil
			}),
			NewStatic("default"),
		)

		got, err := chain.Resolve(ctx, "currency:EUR", nil)
		require.NoError(t, err)
		assert.Equal(t, "from-secondary", got)
	})

	t.Run("严格按声明顺序尝试", func(t *testing.T) {
		var order []string
		mk := func(name string, fail bool) Provider[string] {
			return NewSource(name, func(ctx context.Context, key string) (string, error) {
				order = append(order, name)
				if fail {
					return "", errors.New(name + " failed")
				}
				return name, nil
			})
		}
		chain := NewChain(mk("a", true), mk("b", true), mk("c", false), mk("d", false))

		got, err := chain.Resolve(ctx, "k", nil)
		require.NoError(t, err)
		assert.Equal(t, "c", got)
		// 成功后不再尝试后续提供者
		assert.Equal(t, []string{"a", "b", "c"}, order)
	})

	t.Run("全链失败聚合所有原因", func(t *testing.T) {
		primary := errors.New("service unavailable")
		errA := errors.New("cache empty")
		errB := errors.New("mirror down")

		chain := NewChain[string](
			&failing{name: "cache-lookup", err: errA},
			&failing{name: "mirror", err: errB},
		)

		_, err := chain.Resolve(ctx, "weather:tokyo", primary)
		require.Error(t, err)

		var ee *ExhaustedError
		require.ErrorAs(t, err, &ee)
		assert.Equal(t, "weather:tokyo", ee.Key)
		assert.Equal(t, []string{"cache-lookup", "mirror"}, ee.Providers)
		assert.Equal(t, []error{primary, errA, errB}, ee.Causes)

		// Unwrap() []error 使任意一个原因都可被 errors.Is 匹配
		assert.ErrorIs(t, err, primary)
		assert.ErrorIs(t, err, errA)
		assert.ErrorIs(t, err, errB)
		assert.True(t, IsExhausted(err))
	})

	t.Run("无主路径原因时只聚合提供者错误", func(t *testing.T) {
		errA := errors.New("nope")
		chain := NewChain[string](&failing{name: "only", err: errA})

		_, err := chain.Resolve(ctx, "k", nil)
		var ee *ExhaustedError
		require.ErrorAs(t, err, &ee)
		assert.Equal(t, []error{errA}, ee.Causes)
	})

	t.Run("空链返回ExhaustedError", func(t *testing.T) {
		chain := NewChain[string]()
		primary := errors.New("down")

		_, err := chain.Resolve(ctx, "k", primary)
		require.True(t, IsExhausted(err))
		assert.ErrorIs(t, err, primary)
	})

	t.Run("nil提供者被跳过", func(t *testing.T) {
		chain := NewChain[string](nil, NewStatic("ok"), nil)
		assert.Equal(t, 1, chain.Len())

		got, err := chain.Resolve(ctx, "k", nil)
		require.NoError(t, err)
		assert.Equal(t, "ok", got)
	})

	t.Run("context取消中止链", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		var called bool
		chain := NewChain(NewSource("never", func(ctx context.Context, key string) (string, error) {
			called = true
			return "v", nil
		}))

		_, err := chain.Resolve(cancelled, "k", nil)
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})

	t.Run("提供者之间检查context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)

		chain := NewChain[string](
			NewSource("canceller", func(ctx context.Context, key string) (string, error) {
				cancel()
				return "", errors.New("failed and cancelled")
			}),
			NewStatic("unreachable"),
		)

		_, err := chain.Resolve(cctx, "k", nil)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("nil context保护", func(t *testing.T) {
		chain := NewChain(NewStatic("v"))
		_, err := chain.Resolve(nil, "k", nil) //nolint:staticcheck // 刻意测试 nil context
		assert.ErrorIs(t, err, ErrNilContext)
	})
}

func TestChainNames(t *testing.T) {
	chain := NewChain[string](
		&failing{name: "cache-lookup", err: ErrNoValue},
		NewSource[string]("mirror", nil),
		NewStatic("d"),
	)
	assert.Equal(t, []string{"cache-lookup", "mirror", "static"}, chain.Names())

	var nilChain *Chain[string]
	assert.Equal(t, 0, nilChain.Len())
	assert.Nil(t, nilChain.Names())
}

func TestProviders(t *testing.T) {
	ctx := context.Background()

	t.Run("静态提供者永远成功", func(t *testing.T) {
		p := NewStatic(42)
		assert.Equal(t, "static", p.Name())
		got, err := p.Resolve(ctx, "anything")
		require.NoError(t, err)
		assert.Equal(t, 42, got)
	})

	t.Run("缓存提供者委托给getter", func(t *testing.T) {
		p := NewCacheLookup[string](getterFunc(func(ctx context.Context, key string) (string, error) {
			if key == "hit" {
				return "cached", nil
			}
			return "", ErrNoValue
		}))
		assert.Equal(t, "cache-lookup", p.Name())

		got, err := p.Resolve(ctx, "hit")
		require.NoError(t, err)
		assert.Equal(t, "cached", got)

		_, err = p.Resolve(ctx, "miss")
		assert.ErrorIs(t, err, ErrNoValue)
	})

	t.Run("nil getter返回ErrNilProvider", func(t *testing.T) {
		p := NewCacheLookup[string](nil)
		_, err := p.Resolve(ctx, "k")
		assert.ErrorIs(t, err, ErrNilProvider)
	})

	t.Run("备用数据源带超时", func(t *testing.T) {
		p := NewSource("slow-mirror", func(ctx context.Context, key string) (string, error) {
			select {
			case <-time.After(time.Second):
				return "too late", nil
			case <-ctx.Done():
				return "", ctx.Err()
			}
		})

		tctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
		defer cancel()
		_, err := p.Resolve(tctx, "k")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("无名数据源使用默认名", func(t *testing.T) {
		p := NewSource[string]("", nil)
		assert.Equal(t, "source", p.Name())
		_, err := p.Resolve(ctx, "k")
		assert.ErrorIs(t, err, ErrNilProvider)
	})
}

// getterFunc 将函数适配为 Getter。
type getterFunc func(ctx context.Context, key string) (string, error)

func (f getterFunc) Get(ctx context.Context, key string) (string, error) {
	return f(ctx, key)
}
