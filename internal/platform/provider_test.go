package platform

import "testing"

func TestNewProvider_NoBackend(t *testing.T) {
	orig := NewProviderFunc
	NewProviderFunc = nil
	defer func() { NewProviderFunc = orig }()

	_, err := NewProvider()
	if err == nil {
		t.Fatal("expected error without a registered backend")
	}
	if err != ErrUnsupported {
		t.Errorf("expected ErrUnsupported, got: %v", err)
	}
}

func TestNewProvider_UsesRegisteredBackend(t *testing.T) {
	orig := NewProviderFunc
	want := &Provider{}
	NewProviderFunc = func() (*Provider, error) { return want, nil }
	defer func() { NewProviderFunc = orig }()

	got, err := NewProvider()
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Error("NewProvider should return the registered provider")
	}
}
