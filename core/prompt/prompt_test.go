package prompt

import (
	"strings"
	"testing"

	"github.com/adalundhe/flowprompt/core/analysis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedID() string { return "req-1" }

func newGenerator(t *testing.T, opts Options) *Generator {
	t.Helper()
	if opts.NewID == nil {
		opts.NewID = fixedID
	}
	g, err := NewGenerator(opts)
	require.NoError(t, err)
	return g
}

func pythonSignature() *analysis.Signature {
	return &analysis.Signature{
		Language:  analysis.Python,
		Name:      "create_order",
		Raw:       "create_order(items: List[str], discount: float = 0.0, *args) -> dict",
		Modifiers: []string{},
		Parameters: []analysis.Parameter{
			{Name: "items", Type: "List[str]"},
			{Name: "discount", Type: "float", HasDefault: true, Default: "0.0"},
			{Name: "args", Type: analysis.PythonUntyped, Variadic: true, Spread: "*"},
		},
		ReturnType:   "dict",
		Exceptions:   []string{},
		Annotations:  []analysis.Annotation{{Name: "app.route", Arguments: `"/orders"`}},
		Dependencies: analysis.NewDependencySet([]string{"os"}, []string{"calculate"}),
	}
}

func pythonFlow() *analysis.FlowAnalysis {
	return analysis.NewFlowAnalysis(analysis.Python, []analysis.FlowNode{
		&analysis.Conditional{
			Condition: "not items",
			Body:      []analysis.FlowNode{&analysis.Throw{Exception: "ValueError"}},
		},
		&analysis.ForLoop{Header: "item in items"},
		&analysis.TryCatch{Exceptions: []string{"KeyError", "ValueError"}},
		&analysis.Return{Value: "total"},
	})
}

func javaSignature() *analysis.Signature {
	return &analysis.Signature{
		Language:  analysis.Java,
		Name:      "processOrders",
		Raw:       "public List<Order> processOrders(Map<String, Integer> quantities, List<Order> orders) throws IOException",
		Modifiers: []string{"public"},
		Parameters: []analysis.Parameter{
			{Name: "quantities", Type: "Map<String, Integer>"},
			{Name: "orders", Type: "List<Order>", Annotations: []analysis.Annotation{{Name: "NotNull"}}},
		},
		ReturnType:   "List<Order>",
		Exceptions:   []string{"IOException"},
		Annotations:  []analysis.Annotation{{Name: "Override"}},
		Dependencies: analysis.NewDependencySet([]string{"java.util.List", "java.util.Map"}, nil),
	}
}

func javaFlow() *analysis.FlowAnalysis {
	return analysis.NewFlowAnalysis(analysis.Java, []analysis.FlowNode{
		&analysis.Throw{Exception: "IllegalStateException"},
		&analysis.WhileLoop{Condition: "running"},
	})
}

// ============================================================================
// Prompt rendering
// ============================================================================

func TestGeneratePython(t *testing.T) {
	g := newGenerator(t, Options{})

	result, err := g.Generate(pythonSignature(), pythonFlow(), "pytest")
	require.NoError(t, err)

	p := result.Prompt
	assert.True(t, strings.HasPrefix(p, "Generate complete unit tests for the following Python function:\n\n"))
	assert.Contains(t, p, "FUNCTION: create_order(items: List[str], discount: float = 0.0, *args) -> dict\n")
	assert.Contains(t, p, "PARAMETERS: items: List[str], discount: float = 0.0, *args: Any\n")
	assert.Contains(t, p, "RETURNS: dict\n")
	assert.Contains(t, p, `DECORATORS: @app.route("/orders")`+"\n")
	assert.Contains(t, p, "DEPENDENCIES: os\n")
	assert.Contains(t, p, "FLOW: IF(not items) -> FOR(item in items) -> TRY-EXCEPT(KeyError, ValueError) -> RETURN(total)\n")
	assert.Contains(t, p, "COMPLEXITY: 5\n")
	assert.Contains(t, p, "SCENARIOS: Condition TRUE: not items; Condition FALSE: not items; Empty loop; "+
		"Loop with multiple iterations; Exception: KeyError; Exception: ValueError; Execution without exception\n")
	assert.Contains(t, p, "1. Cover every scenario identified in the flow\n")
	assert.Contains(t, p, "4. Use mocks for external dependencies\n")
	assert.Contains(t, p, "5. Keep tests independent and deterministic\n\nMANDATORY OUTPUT STRUCTURE:\n```python\nimport pytest\n")
	assert.Contains(t, p, "class TestCreateOrder:\n")
	assert.NotContains(t, p, "Mockito")
	assert.True(t, strings.HasSuffix(p, "```\n\nGenerate ONLY the test code, without additional explanations."))

	assert.Equal(t, Metadata{
		RequestID:      "req-1",
		Language:       analysis.Python,
		Framework:      Pytest,
		Complexity:     5,
		EstimatedTests: 10,
	}, result.Metadata)
}

func TestGenerateJava(t *testing.T) {
	g := newGenerator(t, Options{})

	result, err := g.Generate(javaSignature(), javaFlow(), "junit")
	require.NoError(t, err)

	p := result.Prompt
	assert.True(t, strings.HasPrefix(p, "Generate complete unit tests for the following Java method:\n\n"))
	assert.Contains(t, p, "MODIFIERS: public\n")
	assert.Contains(t, p, "PARAMETERS: Map<String, Integer> quantities, @NotNull List<Order> orders\n")
	assert.Contains(t, p, "EXCEPTIONS: IOException\n")
	assert.Contains(t, p, "ANNOTATIONS: @Override\n")
	assert.Contains(t, p, "DEPENDENCIES: java.util.List, java.util.Map\n")
	assert.Contains(t, p, "FLOW: THROW(IllegalStateException) -> WHILE(running)\n")
	assert.Contains(t, p, "SCENARIOS: Throws: IllegalStateException; Empty loop; Loop with multiple iterations\n")
	assert.Contains(t, p, "4. Use Mockito to mock dependencies\n")
	assert.Contains(t, p, "7. Implement parameterized tests where appropriate\n")
	assert.Contains(t, p, "```java\nimport org.junit.jupiter.api.Test;")
	assert.Contains(t, p, "class ProcessOrdersTest {")
	assert.Contains(t, p, "@ValueSource(ints = {1, 2, 3})")

	assert.Equal(t, JUnit5, result.Metadata.Framework)
	assert.Equal(t, 2, result.Metadata.Complexity)
	assert.Equal(t, 4, result.Metadata.EstimatedTests)
}

func TestGenerateLinearAndEmptySections(t *testing.T) {
	g := newGenerator(t, Options{})

	sig := &analysis.Signature{
		Language:     analysis.Java,
		Name:         "tick",
		Raw:          "void tick()",
		ReturnType:   "void",
		Dependencies: analysis.NewDependencySet(nil, nil),
	}
	result, err := g.Generate(sig, analysis.NewFlowAnalysis(analysis.Java, nil), "")
	require.NoError(t, err)

	p := result.Prompt
	assert.Contains(t, p, "MODIFIERS: None\n")
	assert.Contains(t, p, "PARAMETERS: None\n")
	assert.Contains(t, p, "EXCEPTIONS: None\n")
	assert.Contains(t, p, "ANNOTATIONS: None\n")
	assert.Contains(t, p, "DEPENDENCIES: None\n")
	assert.Contains(t, p, "FLOW: Linear\n")
	assert.Contains(t, p, "SCENARIOS: Linear flow\n")
	assert.Equal(t, 2, result.Metadata.EstimatedTests)
}

func TestGenerateFrameworks(t *testing.T) {
	g := newGenerator(t, Options{})

	result, err := g.Generate(pythonSignature(), pythonFlow(), "unittest")
	require.NoError(t, err)
	assert.Equal(t, Unittest, result.Metadata.Framework)
	assert.Contains(t, result.Prompt, "class TestCreateOrder(unittest.TestCase):")
	assert.Contains(t, result.Prompt, "unittest.main()")

	result, err = g.Generate(javaSignature(), javaFlow(), "junit4")
	require.NoError(t, err)
	assert.Equal(t, JUnit4, result.Metadata.Framework)
	assert.Contains(t, result.Prompt, "@RunWith(MockitoJUnitRunner.class)\npublic class ProcessOrdersTest {")

	// Configured default applies to auto.
	g = newGenerator(t, Options{Frameworks: map[analysis.Language]string{analysis.Java: "junit4"}})
	result, err = g.Generate(javaSignature(), javaFlow(), "auto")
	require.NoError(t, err)
	assert.Equal(t, JUnit4, result.Metadata.Framework)
}

func TestGenerateErrors(t *testing.T) {
	g := newGenerator(t, Options{})

	_, err := g.Generate(nil, pythonFlow(), "pytest")
	assert.Error(t, err)

	_, err = g.Generate(pythonSignature(), nil, "pytest")
	assert.Error(t, err)

	sig := pythonSignature()
	sig.Language = analysis.Language("rust")
	_, err = g.Generate(sig, pythonFlow(), "")
	assert.ErrorIs(t, err, analysis.ErrUnsupportedLanguage)
}

func TestGenerateDeterministic(t *testing.T) {
	g := newGenerator(t, Options{})

	first, err := g.Generate(javaSignature(), javaFlow(), "junit5")
	require.NoError(t, err)
	second, err := g.Generate(javaSignature(), javaFlow(), "junit5")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDefaultRequestID(t *testing.T) {
	g, err := NewGenerator(Options{})
	require.NoError(t, err)

	first, err := g.Generate(pythonSignature(), pythonFlow(), "")
	require.NoError(t, err)
	second, err := g.Generate(pythonSignature(), pythonFlow(), "")
	require.NoError(t, err)

	assert.Len(t, first.Metadata.RequestID, 36)
	assert.NotEqual(t, first.Metadata.RequestID, second.Metadata.RequestID)
	assert.Equal(t, first.Prompt, second.Prompt)
}

// ============================================================================
// Frameworks, scenarios and estimates
// ============================================================================

func TestResolveFramework(t *testing.T) {
	tests := []struct {
		language  analysis.Language
		requested string
		want      Framework
	}{
		{analysis.Python, "", Pytest},
		{analysis.Python, "auto", Pytest},
		{analysis.Python, "unittest", Unittest},
		{analysis.Python, " PyTest ", Pytest},
		{analysis.Python, "junit5", Pytest},
		{analysis.Java, "junit", JUnit5},
		{analysis.Java, "JUnit4", JUnit4},
		{analysis.Java, "pytest", JUnit5},
		{analysis.Java, "jest", JUnit5},
	}
	for _, tt := range tests {
		t.Run(string(tt.language)+"/"+tt.requested, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveFramework(tt.language, tt.requested))
		})
	}

	assert.Equal(t, []Framework{Pytest, Unittest}, Frameworks(analysis.Python))
	assert.Equal(t, []Framework{JUnit5, JUnit4}, Frameworks(analysis.Java))
}

func TestScenarios(t *testing.T) {
	flow := []analysis.FlowNode{
		&analysis.Throw{Exception: "Re-raise"},
		&analysis.Return{Value: "None"},
	}
	assert.Equal(t, []string{"Raises: Re-raise"}, Scenarios(analysis.Python, flow))
	assert.Equal(t, []string{"Throws: Re-raise"}, Scenarios(analysis.Java, flow))
	assert.Empty(t, Scenarios(analysis.Python, nil))
}

func TestEstimateTestsCap(t *testing.T) {
	var flow []analysis.FlowNode
	for i := 0; i < 10; i++ {
		flow = append(flow, &analysis.Conditional{Condition: "x"})
	}

	java := analysis.NewFlowAnalysis(analysis.Java, flow)
	assert.Equal(t, 11, java.Complexity)
	assert.Equal(t, MaxJavaTests, EstimateTests(analysis.Java, java, 0))

	python := analysis.NewFlowAnalysis(analysis.Python, flow)
	assert.Equal(t, MaxPythonTests, EstimateTests(analysis.Python, python, 0))
	assert.Equal(t, 5, EstimateTests(analysis.Python, python, 5))

	g := newGenerator(t, Options{MaxTests: map[analysis.Language]int{analysis.Python: 3}})
	sig := pythonSignature()
	result, err := g.Generate(sig, python, "")
	require.NoError(t, err)
	assert.Equal(t, 3, result.Metadata.EstimatedTests)
}

func TestExportedName(t *testing.T) {
	assert.Equal(t, "CreateOrder", exportedName("create_order"))
	assert.Equal(t, "ProcessOrders", exportedName("processOrders"))
	assert.Equal(t, "Private", exportedName("__private"))
	assert.Equal(t, "Function", exportedName(""))
}
