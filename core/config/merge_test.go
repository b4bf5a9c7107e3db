package config

import (
	"testing"
	"time"
)

func TestDeepMergeStructs(t *testing.T) {
	type Inner struct {
		Value int
		Name  string
	}
	type Outer struct {
		Inner Inner
		Count int
	}

	dst := &Outer{Inner: Inner{Value: 1, Name: "original"}, Count: 10}
	src := &Outer{Inner: Inner{Value: 2}, Count: 0}

	DeepMerge(dst, src)

	if dst.Inner.Value != 2 {
		t.Errorf("Inner.Value: got %d, want 2", dst.Inner.Value)
	}
	if dst.Inner.Name != "original" {
		t.Errorf("Inner.Name: got %s, want original", dst.Inner.Name)
	}
	if dst.Count != 10 {
		t.Errorf("Count: got %d, want 10 (zero value shouldn't override)", dst.Count)
	}
}

func TestDeepMergeMaps(t *testing.T) {
	type S struct {
		M map[string]int
	}

	dst := &S{M: map[string]int{"a": 1, "b": 2}}
	src := &S{M: map[string]int{"b": 20, "c": 3}}

	DeepMerge(dst, src)

	if dst.M["a"] != 1 || dst.M["b"] != 20 || dst.M["c"] != 3 {
		t.Errorf("M: got %v", dst.M)
	}
}

func TestDeepMergeSlices(t *testing.T) {
	type S struct {
		Items []string
	}

	dst := &S{Items: []string{"a", "b"}}
	DeepMerge(dst, &S{Items: []string{}})
	if len(dst.Items) != 2 {
		t.Errorf("empty slice shouldn't overwrite: got %v", dst.Items)
	}

	DeepMerge(dst, &S{Items: []string{"x", "y", "z"}})
	if len(dst.Items) != 3 || dst.Items[0] != "x" {
		t.Errorf("Items: got %v", dst.Items)
	}
}

func TestDeepMergeNilMap(t *testing.T) {
	type S struct {
		M map[string]int
	}

	dst := &S{M: nil}
	DeepMerge(dst, &S{M: map[string]int{"a": 1}})

	if dst.M["a"] != 1 {
		t.Errorf("M[a]: got %d, want 1", dst.M["a"])
	}
}

func TestDeepMergeMismatchedTypes(t *testing.T) {
	type A struct{ N int }
	type B struct{ N int }

	dst := &A{N: 1}
	DeepMerge(dst, &B{N: 2})
	if dst.N != 1 {
		t.Errorf("mismatched types should be ignored: got %d", dst.N)
	}

	DeepMerge(dst, (*A)(nil))
	if dst.N != 1 {
		t.Errorf("nil source should be ignored: got %d", dst.N)
	}
}

func TestDeepMergeConfig(t *testing.T) {
	dst := DefaultConfig()
	src := &Config{
		Analysis: AnalysisConfig{JavaMatchTimeout: time.Second},
		Prompt:   PromptConfig{Frameworks: map[string]string{"python": "unittest"}},
	}
	src.Providers.Default = "openai"
	src.Providers.OpenAI.Model = "gpt-4.1-mini"

	DeepMerge(dst, src)

	if dst.Providers.Default != "openai" {
		t.Errorf("Providers.Default: got %s, want openai", dst.Providers.Default)
	}
	if dst.Providers.OpenAI.Model != "gpt-4.1-mini" {
		t.Errorf("OpenAI.Model: got %s", dst.Providers.OpenAI.Model)
	}
	if dst.Providers.OpenAI.MaxTokens != 8192 {
		t.Errorf("OpenAI.MaxTokens should retain default: got %d", dst.Providers.OpenAI.MaxTokens)
	}
	if dst.Analysis.JavaMatchTimeout != time.Second {
		t.Errorf("JavaMatchTimeout: got %v", dst.Analysis.JavaMatchTimeout)
	}
	if dst.Analysis.CacheSize != 256 {
		t.Errorf("CacheSize should retain default: got %d", dst.Analysis.CacheSize)
	}
	if dst.Prompt.Frameworks["python"] != "unittest" || dst.Prompt.Frameworks["java"] != "junit5" {
		t.Errorf("Frameworks: got %v", dst.Prompt.Frameworks)
	}
}
