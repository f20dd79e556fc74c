package factory

import "testing"

type greeter interface{ Greet() string }

type greeterImpl struct{ name string }

func (g greeterImpl) Greet() string { return "hi " + g.name }

func TestRegistryCreate(t *testing.T) {
	reg := NewRegistry[greeter]()
	err := reg.Register("basic", func(conf map[string]any) (greeter, error) {
		var c struct {
			Name string `json:"name"`
		}
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return greeterImpl{name: c.Name}, nil
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	g, err := reg.Create(ModuleConfig{Type: "basic", Conf: map[string]any{"name": "bob"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if g.Greet() != "hi bob" {
		t.Fatalf("unexpected greet %q", g.Greet())
	}
}

func TestRegistryErrors(t *testing.T) {
	reg := NewRegistry[greeter]()
	if err := reg.Register("nil", nil); err == nil {
		t.Fatalf("expected error for nil factory")
	}
	f := func(map[string]any) (greeter, error) { return greeterImpl{}, nil }
	if err := reg.Register("dup", f); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("dup", f); err == nil {
		t.Fatalf("expected duplicate error")
	}
	if _, err := reg.Create(ModuleConfig{Type: "missing"}); err == nil {
		t.Fatalf("expected unknown type error")
	}
}

func TestRegistryNames(t *testing.T) {
	reg := NewRegistry[greeter]()
	f := func(map[string]any) (greeter, error) { return greeterImpl{}, nil }
	_ = reg.Register("zeta", f)
	_ = reg.Register("alpha", f)
	names := reg.Names()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestDecodeWeakTypes(t *testing.T) {
	var c struct {
		Port int `json:"port"`
	}
	if err := Decode(map[string]any{"port": "9100"}, &c); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c.Port != 9100 {
		t.Fatalf("expected 9100 got %d", c.Port)
	}
}
