package analysis

import "fmt"

// Pipeline is the contract every language implementation satisfies. All
// methods are pure functions of their input and safe for concurrent use.
type Pipeline interface {
	Language() Language
	ExtractStructure(source string) (*Signature, error)
	// ExtractDependencies never fails; unparsable input yields an empty set.
	ExtractDependencies(source string) DependencySet
	SummarizeFlow(source string) (*FlowAnalysis, error)
}

// Guard runs fn at an operation boundary. A panic becomes an
// UnparsableInput error, and a result is never returned alongside an error.
func Guard[T any](language Language, fn func() (*T, error)) (result *T, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = Unparsable(language, fmt.Errorf("panic: %v", r))
		}
	}()

	result, err = fn()
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GuardDependencies is Guard for the infallible dependency extractor.
func GuardDependencies(fn func() DependencySet) (deps DependencySet) {
	defer func() {
		if r := recover(); r != nil {
			deps = NewDependencySet(nil, nil)
		}
	}()
	return fn()
}
