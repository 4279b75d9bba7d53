package workflow

import "testing"

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog([]Plan{
		{ID: "tier3", Name: "Premium Tips", Price: "100 GHS", Units: "10 Odds"},
		{ID: "tier5", Name: "VIP Tips", Price: "250 GHS", Units: "25 Odds"},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return c
}

func TestCatalogValidation(t *testing.T) {
	if _, err := NewCatalog(nil); err == nil {
		t.Fatal("empty catalog must be rejected")
	}
	if _, err := NewCatalog([]Plan{{ID: ""}}); err == nil {
		t.Fatal("empty plan id must be rejected")
	}
	if _, err := NewCatalog([]Plan{{ID: "a"}, {ID: "a"}}); err == nil {
		t.Fatal("duplicate plan id must be rejected")
	}
}

func TestCatalogDefaultIsFirstConfigured(t *testing.T) {
	c := testCatalog(t)
	if got := c.Default().ID; got != "tier3" {
		t.Fatalf("default = %q, want tier3", got)
	}
}

func TestCatalogResolve(t *testing.T) {
	c := testCatalog(t)

	if p, known := c.Resolve(""); !known || p.ID != "tier3" {
		t.Fatalf("empty id: got %q known=%t", p.ID, known)
	}
	if p, known := c.Resolve("tier5"); !known || p.Price != "250 GHS" {
		t.Fatalf("tier5: got %+v known=%t", p, known)
	}
	p, known := c.Resolve("tier9")
	if known {
		t.Fatal("tier9 must not resolve")
	}
	if p.ID != "tier9" || p.Price != "" {
		t.Fatalf("unknown id must keep only the id, got %+v", p)
	}
}
