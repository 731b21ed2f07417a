package descriptors

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MrSnakeDoc/rpcconsole/internal/domain"
	"github.com/MrSnakeDoc/rpcconsole/internal/registry"
)

const sampleYAML = `---
application: billing
references:
  - name: userRef
    interface: com.acme.UserService
    version: 1.0.0
    endpoints: ["${USER_ENDPOINT}"]
    timeout: 3s
    retries: 2
services:
  - name: invoiceService
    interface: com.acme.InvoiceService
    implementation: invoiceServiceImpl
  - name: invoiceHttp
    kind: http
    interface: /invoices
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "descriptors.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}

func TestLoaderLoad(t *testing.T) {
	t.Setenv("USER_ENDPOINT", "10.0.0.7:20880")
	path := writeFile(t, sampleYAML)

	file, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if file.Application != "billing" {
		t.Errorf("Application = %q, want billing", file.Application)
	}
	if len(file.References) != 1 || len(file.Services) != 2 {
		t.Fatalf("got %d references, %d services", len(file.References), len(file.Services))
	}
	if got := file.References[0].Endpoints[0]; got != "10.0.0.7:20880" {
		t.Errorf("endpoint = %q, env var not expanded", got)
	}
}

func TestLoaderLoadFileNotFound(t *testing.T) {
	if _, err := NewLoader("/nonexistent/descriptors.yaml").Load(); err == nil {
		t.Error("Load() with non-existent file should return error")
	}
}

func TestMapReferences(t *testing.T) {
	tests := []struct {
		name    string
		props   []ReferenceProps
		wantErr bool
	}{
		{"valid", []ReferenceProps{{Name: "a", Interface: "x.A", Timeout: "250ms"}}, false},
		{"missing name", []ReferenceProps{{Interface: "x.A"}}, true},
		{"missing interface", []ReferenceProps{{Name: "a"}}, true},
		{"bad timeout", []ReferenceProps{{Name: "a", Interface: "x.A", Timeout: "soon"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refs, err := MapReferences(tt.props)
			if (err != nil) != tt.wantErr {
				t.Fatalf("MapReferences() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && refs[0].Timeout != 250*time.Millisecond {
				t.Errorf("Timeout = %v, want 250ms", refs[0].Timeout)
			}
		})
	}
}

func TestMapServicesRejectsUnknownKind(t *testing.T) {
	if _, err := MapServices([]ServiceProps{{Name: "a", Kind: "soap"}}); err == nil {
		t.Error("MapServices() with unknown kind should fail")
	}
}

func TestBootstrap(t *testing.T) {
	t.Setenv("USER_ENDPOINT", "10.0.0.7:20880")
	path := writeFile(t, sampleYAML)
	refs := registry.NewReferences()
	svcs := registry.NewServices()

	res, err := Bootstrap(path, refs, svcs)
	if err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	if res.References != 1 || res.Services != 2 {
		t.Errorf("Bootstrap() = %+v", res)
	}

	svc, err := svcs.Get("invoiceHttp")
	if err != nil {
		t.Fatal(err)
	}
	if svc.Kind != domain.KindHTTP {
		t.Errorf("invoiceHttp kind = %q", svc.Kind)
	}
}

func TestBootstrapDuplicate(t *testing.T) {
	path := writeFile(t, `
services:
  - name: dup
    interface: a
  - name: dup
    interface: b
`)
	_, err := Bootstrap(path, registry.NewReferences(), registry.NewServices())
	if !errors.Is(err, registry.ErrDuplicate) {
		t.Errorf("Bootstrap() error = %v, want ErrDuplicate", err)
	}
}
