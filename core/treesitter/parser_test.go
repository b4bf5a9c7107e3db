package treesitter

import (
	"errors"
	"sync"
	"testing"
)

func TestParserRequiresLanguage(t *testing.T) {
	p := NewParser()
	defer p.Close()

	if _, err := p.ParseString("x = 1"); !errors.Is(err, ErrLanguageNotLoaded) {
		t.Errorf("err = %v, want ErrLanguageNotLoaded", err)
	}
	if err := p.SetLanguageByName("cobol"); !errors.Is(err, ErrGrammarNotFound) {
		t.Errorf("err = %v, want ErrGrammarNotFound", err)
	}
}

func TestParserSyntaxErrorsStillParse(t *testing.T) {
	p := NewParser()
	defer p.Close()
	if err := p.SetLanguageByName("python"); err != nil {
		t.Fatal(err)
	}

	tree, err := p.ParseString("def broken(:\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer tree.Close()

	if !tree.RootNode().HasError() {
		t.Error("expected error nodes in tree")
	}
}

func TestParserPoolReuse(t *testing.T) {
	pool := NewParserPoolWithConfig(ParserPoolConfig{MaxIdleParsersPerLanguage: 1})
	defer pool.Close()

	first, err := pool.Get("python")
	if err != nil {
		t.Fatal(err)
	}
	second, err := pool.Get("python")
	if err != nil {
		t.Fatal(err)
	}

	if stats := pool.Stats()["python"]; stats.Active != 2 || stats.Idle != 0 {
		t.Errorf("stats = %+v, want 2 active", stats)
	}

	pool.Put(first)
	pool.Put(second)

	if stats := pool.Stats()["python"]; stats.Active != 0 || stats.Idle != 1 {
		t.Errorf("stats = %+v, want 1 idle", stats)
	}

	again, err := pool.Get("python")
	if err != nil {
		t.Fatal(err)
	}
	if again != first {
		t.Error("expected idle parser to be reused")
	}
	pool.Put(again)
}

func TestParserPoolUnknownLanguage(t *testing.T) {
	pool := NewParserPool()
	defer pool.Close()

	if _, err := pool.Get("cobol"); !errors.Is(err, ErrGrammarNotFound) {
		t.Errorf("err = %v, want ErrGrammarNotFound", err)
	}
}

func TestParserPoolConcurrentParse(t *testing.T) {
	pool := NewParserPool()
	defer pool.Close()

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tree, err := pool.Parse("python", []byte("def f(a):\n    return a\n"))
			if err != nil {
				errs <- err
				return
			}
			if tree.RootNode().Find("function_definition") == nil {
				errs <- errors.New("function not found")
			}
			tree.Close()
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestDetectLanguageForFile(t *testing.T) {
	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"orders/service.py", "python", true},
		{"STUBS.PYI", "python", true},
		{"Store.java", "", false},
	}
	for _, tt := range tests {
		got, ok := DetectLanguageForFile(tt.path)
		if got != tt.want || ok != tt.ok {
			t.Errorf("DetectLanguageForFile(%q) = %q, %v", tt.path, got, ok)
		}
	}
}
