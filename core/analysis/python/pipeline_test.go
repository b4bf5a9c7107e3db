package python

import (
	"strings"
	"testing"

	"github.com/adalundhe/flowprompt/core/analysis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const orderService = `import os
from typing import List, Optional
from . import helpers
from ..pkg.mod import thing as alias

@app.route("/orders", methods=["POST"])
@login_required
async def create_order(self, items: List[str], discount: float = 0.0, *args, notify=True, **kwargs) -> Optional[dict]:
    total = calculate(items)
    self.repo.save(total)
    return os.path.join("a", "b")
`

const processOrder = `def process(order):
    if not order:
        raise ValueError("empty order")
    for item in order.items:
        if item.qty > 10:
            apply_discount(item)
        elif item.qty == 0:
            continue
        else:
            pass
    try:
        charge(order)
    except PaymentError as e:
        log(e)
        raise
    except (TimeoutError, ConnectionError):
        retry(order)
    except:
        pass
    finally:
        close()
    while pending():
        wait()
    with lock:
        if order.done:
            return order.id
    return None
`

func newPipeline(t *testing.T) *Pipeline {
	t.Helper()
	return New(nil)
}

func TestExtractStructure(t *testing.T) {
	p := newPipeline(t)

	sig, err := p.ExtractStructure(orderService)
	require.NoError(t, err)

	assert.Equal(t, analysis.Python, sig.Language)
	assert.Equal(t, "create_order", sig.Name)
	assert.Equal(t, []string{"async"}, sig.Modifiers)
	assert.Equal(t, "Optional[dict]", sig.ReturnType)
	assert.Empty(t, sig.Exceptions)
	assert.Equal(t,
		"create_order(self, items: List[str], discount: float = 0.0, *args, notify = True, **kwargs) -> Optional[dict]",
		sig.Raw)

	t.Run("parameters", func(t *testing.T) {
		require.Len(t, sig.Parameters, 6)

		assert.Equal(t, analysis.Parameter{Name: "self", Type: "Any"}, sig.Parameters[0])
		assert.Equal(t, analysis.Parameter{Name: "items", Type: "List[str]"}, sig.Parameters[1])
		assert.Equal(t, analysis.Parameter{Name: "discount", Type: "float", HasDefault: true, Default: "0.0"}, sig.Parameters[2])
		assert.Equal(t, analysis.Parameter{Name: "args", Type: "Any", Variadic: true, Spread: "*"}, sig.Parameters[3])
		assert.Equal(t, analysis.Parameter{Name: "notify", Type: "Any", HasDefault: true, Default: "True"}, sig.Parameters[4])
		assert.Equal(t, analysis.Parameter{Name: "kwargs", Type: "Any", Variadic: true, Spread: "**"}, sig.Parameters[5])
	})

	t.Run("decorators", func(t *testing.T) {
		assert.Equal(t, []analysis.Annotation{
			{Name: "app.route", Arguments: `"/orders", methods=["POST"]`},
			{Name: "login_required"},
		}, sig.Annotations)
	})

	t.Run("dependencies", func(t *testing.T) {
		assert.Equal(t, []string{".helpers", "os", "pkg.mod.thing", "typing.List", "typing.Optional"}, sig.Dependencies.Imports)
		assert.Equal(t, []string{"app.route", "calculate", "os.path.join", "self.repo.save"}, sig.Dependencies.Calls)
	})
}

func TestExtractStructureVariants(t *testing.T) {
	p := newPipeline(t)

	t.Run("untyped function has sentinels", func(t *testing.T) {
		sig, err := p.ExtractStructure("def add(a, b):\n    return a + b\n")
		require.NoError(t, err)
		assert.Equal(t, "add(a, b)", sig.Raw)
		assert.Equal(t, "Any", sig.ReturnType)
		assert.Empty(t, sig.Modifiers)
		assert.Empty(t, sig.Annotations)
		require.Len(t, sig.Parameters, 2)
		for _, param := range sig.Parameters {
			assert.Equal(t, "Any", param.Type)
			assert.False(t, param.HasDefault)
			assert.Empty(t, param.Default)
		}
	})

	t.Run("separators are not parameters", func(t *testing.T) {
		sig, err := p.ExtractStructure("def f(a, /, b, *, c: int = 3):\n    pass\n")
		require.NoError(t, err)
		require.Len(t, sig.Parameters, 3)
		assert.Equal(t, "c", sig.Parameters[2].Name)
		assert.Equal(t, "int", sig.Parameters[2].Type)
		assert.Equal(t, "f(a, /, b, *, c: int = 3)", sig.Raw)
	})

	t.Run("first function wins over nested and later ones", func(t *testing.T) {
		source := "def outer(x):\n    def inner(y):\n        return y\n    return inner(x)\n\ndef later():\n    pass\n"
		sig, err := p.ExtractStructure(source)
		require.NoError(t, err)
		assert.Equal(t, "outer", sig.Name)
	})

	t.Run("method inside class", func(t *testing.T) {
		source := "class Store:\n    @staticmethod\n    def total(prices: list) -> float:\n        return sum(prices)\n"
		sig, err := p.ExtractStructure(source)
		require.NoError(t, err)
		assert.Equal(t, "total", sig.Name)
		assert.Equal(t, []analysis.Annotation{{Name: "staticmethod"}}, sig.Annotations)
		assert.Equal(t, "float", sig.ReturnType)
	})
}

func TestExtractStructureErrors(t *testing.T) {
	p := newPipeline(t)

	tests := []struct {
		name   string
		source string
		want   error
	}{
		{"empty input", "", analysis.ErrNoFunctionFound},
		{"whitespace input", "  \n\t", analysis.ErrNoFunctionFound},
		{"no function", "x = 1\nprint(x)\n", analysis.ErrNoFunctionFound},
		{"garbage", ")))) ((( ::: ]]", analysis.ErrUnparsableInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, err := p.ExtractStructure(tt.source)
			assert.Nil(t, sig)
			assert.ErrorIs(t, err, tt.want)

			flow, err := p.SummarizeFlow(tt.source)
			assert.Nil(t, flow)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLocateWithoutFunctionIsStable(t *testing.T) {
	p := newPipeline(t)

	inputs := map[string]error{
		"x = 1\nprint(x)\n": analysis.ErrNoFunctionFound,
		")))) ((( ::: ]]":   analysis.ErrUnparsableInput,
	}
	for source, want := range inputs {
		for i := 0; i < 500; i++ {
			flow, err := p.SummarizeFlow(source)
			require.Nil(t, flow)
			require.ErrorIs(t, err, want, "iteration %d", i)

			sig, err := p.ExtractStructure(source)
			require.Nil(t, sig)
			require.ErrorIs(t, err, want, "iteration %d", i)
		}
	}
}

func TestSummarizeFlow(t *testing.T) {
	p := newPipeline(t)

	result, err := p.SummarizeFlow(processOrder)
	require.NoError(t, err)

	assert.Equal(t,
		"IF(not order) -> FOR(item in order.items) -> "+
			"TRY-EXCEPT(PaymentError, (TimeoutError, ConnectionError), Exception) -> "+
			"WHILE(pending()) -> IF(order.done) -> RETURN(None)",
		result.Summary)
	assert.Equal(t, 10, result.Complexity)
	require.Len(t, result.Flow, 6)

	t.Run("raise nested in conditional", func(t *testing.T) {
		cond := result.Flow[0].(*analysis.Conditional)
		assert.False(t, cond.HasElse)
		require.Len(t, cond.Body, 1)
		assert.Equal(t, &analysis.Throw{Exception: `ValueError("empty order")`}, cond.Body[0])
	})

	t.Run("elif becomes nested conditional", func(t *testing.T) {
		loop := result.Flow[1].(*analysis.ForLoop)
		require.Len(t, loop.Body, 1)

		outer := loop.Body[0].(*analysis.Conditional)
		assert.Equal(t, "item.qty > 10", outer.Condition)
		assert.True(t, outer.HasElse)
		require.Len(t, outer.Body, 1)

		elif := outer.Body[0].(*analysis.Conditional)
		assert.Equal(t, "item.qty == 0", elif.Condition)
		assert.True(t, elif.HasElse)
		assert.Empty(t, elif.Body)
	})

	t.Run("try handlers and finally", func(t *testing.T) {
		try := result.Flow[2].(*analysis.TryCatch)
		assert.True(t, try.HasFinally)
		require.Len(t, try.Body, 1)
		assert.Equal(t, &analysis.Throw{Exception: "Re-raise"}, try.Body[0])
	})

	t.Run("with block is transparent", func(t *testing.T) {
		cond := result.Flow[4].(*analysis.Conditional)
		assert.Equal(t, []analysis.FlowNode{&analysis.Return{Value: "order.id"}}, cond.Body)
	})
}

func TestSummarizeFlowProperties(t *testing.T) {
	p := newPipeline(t)

	t.Run("linear function", func(t *testing.T) {
		result, err := p.SummarizeFlow("def f(a):\n    b = a + 1\n    print(b)\n")
		require.NoError(t, err)
		assert.Equal(t, 1, result.Complexity)
		assert.Equal(t, "Linear", result.Summary)
		assert.Empty(t, result.Flow)
	})

	t.Run("bare return", func(t *testing.T) {
		result, err := p.SummarizeFlow("def f():\n    return\n")
		require.NoError(t, err)
		assert.Equal(t, "RETURN(None)", result.Summary)
	})

	t.Run("conditional then return", func(t *testing.T) {
		result, err := p.SummarizeFlow("def check(x):\n    if x is None:\n        x = 0\n    return x * 2\n")
		require.NoError(t, err)
		assert.Equal(t, "IF(x is None) -> RETURN(x * 2)", result.Summary)
	})

	t.Run("if else with a return in each branch", func(t *testing.T) {
		source := "def sign(x):\n    if x > 0:\n        return 1\n    else:\n        return -1\n"
		result, err := p.SummarizeFlow(source)
		require.NoError(t, err)

		require.Len(t, result.Flow, 1)
		cond := result.Flow[0].(*analysis.Conditional)
		assert.True(t, cond.HasElse)
		assert.Equal(t, []analysis.FlowNode{
			&analysis.Return{Value: "1"},
			&analysis.Return{Value: "-1"},
		}, cond.Body)
		assert.Equal(t, 2, result.Complexity)
	})

	t.Run("try with n handlers adds n", func(t *testing.T) {
		source := "def f():\n    try:\n        g()\n    except A:\n        pass\n    except B:\n        pass\n    except C:\n        pass\n"
		result, err := p.SummarizeFlow(source)
		require.NoError(t, err)
		assert.Equal(t, 4, result.Complexity)
	})

	t.Run("nested definitions are skipped", func(t *testing.T) {
		source := "def outer():\n    def helper():\n        if x:\n            return 1\n    return helper\n"
		result, err := p.SummarizeFlow(source)
		require.NoError(t, err)
		assert.Equal(t, "RETURN(helper)", result.Summary)
		assert.Equal(t, 1, result.Complexity)
	})

	t.Run("loop else is part of the loop body", func(t *testing.T) {
		source := "def find(xs):\n    for x in xs:\n        pass\n    else:\n        return None\n"
		result, err := p.SummarizeFlow(source)
		require.NoError(t, err)
		loop := result.Flow[0].(*analysis.ForLoop)
		assert.Equal(t, []analysis.FlowNode{&analysis.Return{Value: "None"}}, loop.Body)
	})

	t.Run("deterministic", func(t *testing.T) {
		first, err := p.SummarizeFlow(processOrder)
		require.NoError(t, err)
		second, err := p.SummarizeFlow(processOrder)
		require.NoError(t, err)
		assert.Equal(t, first, second)

		sigA, err := p.ExtractStructure(orderService)
		require.NoError(t, err)
		sigB, err := p.ExtractStructure(orderService)
		require.NoError(t, err)
		assert.Equal(t, sigA, sigB)
	})
}

func TestSummarizeFlowDeepNesting(t *testing.T) {
	const levels = 200

	var b strings.Builder
	b.WriteString("def deep(x):\n")
	for i := 1; i <= levels; i++ {
		b.WriteString(strings.Repeat(" ", i))
		b.WriteString("if x:\n")
	}
	b.WriteString(strings.Repeat(" ", levels+1))
	b.WriteString("return x\n")

	result, err := newPipeline(t).SummarizeFlow(b.String())
	require.NoError(t, err)

	assert.Equal(t, levels+1, result.Complexity)

	maxDepth := 0
	returns := 0
	analysis.Walk(result.Flow, func(node analysis.FlowNode, depth int) {
		if depth > maxDepth {
			maxDepth = depth
		}
		if node.Kind() == analysis.FlowReturn {
			returns++
		}
	})
	assert.LessOrEqual(t, maxDepth, analysis.MaxFlowDepth)
	assert.Equal(t, 1, returns)
}

func TestExtractDependencies(t *testing.T) {
	p := newPipeline(t)

	deps := p.ExtractDependencies("from __future__ import annotations\nfrom os.path import *\nimport json as j\n\nj.dumps(load())\n")
	assert.Equal(t, []string{"__future__.annotations", "json", "os.path.*"}, deps.Imports)
	assert.Equal(t, []string{"j.dumps", "load"}, deps.Calls)

	empty := p.ExtractDependencies("")
	assert.Empty(t, empty.Imports)
	assert.Empty(t, empty.Calls)
}
