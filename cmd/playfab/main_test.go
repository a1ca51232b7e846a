package main

import (
	"bytes"
	"context"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/morezero/playfab-sdk/internal/config"
	"github.com/morezero/playfab-sdk/pkg/catalog"
	"github.com/morezero/playfab-sdk/pkg/playfab"
)

const mainTestPrefix = "cmd/playfab:main_test"

func TestUsage_ContainsCommands(t *testing.T) {
	required := []string{"serve", "call", "relay-call", "endpoints", "migrate", "ensure-db", "clear", "DATABASE_URL"}
	for _, word := range required {
		if !strings.Contains(usage, word) {
			t.Errorf("%s - usage should contain %q", mainTestPrefix, word)
		}
	}
}

func TestUsage_ListsEveryEnvironmentVariable(t *testing.T) {
	typ := reflect.TypeOf(config.Config{})
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		name := field.Tag.Get("envconfig")
		if name == "" {
			continue
		}
		if !strings.Contains(usage, name) {
			t.Errorf("%s - usage does not document %s", mainTestPrefix, name)
		}
		if def := field.Tag.Get("default"); def != "" && !strings.Contains(usage, name+" ("+def+")") {
			t.Errorf("%s - usage does not show default %q for %s", mainTestPrefix, def, name)
		}
	}
	if strings.Contains(usage, "README") {
		t.Errorf("%s - usage points at a README that is not shipped", mainTestPrefix)
	}
}

func newTestDispatcher(t *testing.T, tr playfab.TransportFunc) *playfab.Dispatcher {
	t.Helper()
	d, err := playfab.NewDispatcher(playfab.DispatcherParams{
		Settings:  playfab.Settings{TitleID: "ABC", DeveloperSecretKey: "secret"},
		Transport: tr,
	})
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestDispatchRaw_Success(t *testing.T) {
	var sent string
	d := newTestDispatcher(t, func(_ context.Context, req *playfab.TransportRequest) ([]byte, error) {
		sent = string(req.Body)
		return []byte(`{"code":200,"status":"OK","data":{"Data":{"k":"v"}}}`), nil
	})
	ep := catalog.MustEndpoint[playfab.Raw](catalog.MustDefault(), "Admin/GetTitleData")

	out := dispatchRaw(context.Background(), d, ep, `{"Keys":["k"]}`)
	want := callOutput{Endpoint: "/Admin/GetTitleData", OK: true, Kind: "success", Data: json.RawMessage(`{"Data":{"k":"v"}}`)}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("%s - output mismatch:\n%s", mainTestPrefix, diff)
	}
	if sent != `{"Keys":["k"]}` {
		t.Errorf("%s - sent body = %s", mainTestPrefix, sent)
	}
}

func TestDispatchRaw_EmptyBodySendsObject(t *testing.T) {
	var sent string
	d := newTestDispatcher(t, func(_ context.Context, req *playfab.TransportRequest) ([]byte, error) {
		sent = string(req.Body)
		return []byte(`{"code":200,"status":"OK","data":{}}`), nil
	})
	ep := catalog.MustEndpoint[playfab.Raw](catalog.MustDefault(), "Admin/GetTitleData")
	if out := dispatchRaw(context.Background(), d, ep, ""); !out.OK {
		t.Fatalf("%s - unexpected failure: %+v", mainTestPrefix, out)
	}
	if sent != "{}" {
		t.Errorf("%s - sent body = %q, want {}", mainTestPrefix, sent)
	}
}

func TestDispatchRaw_Failures(t *testing.T) {
	apiErr := &playfab.APIError{ErrorInfo: playfab.ErrorInfo{HTTPCode: 400, HTTPStatus: "BadRequest", ErrorName: "InvalidParams", ErrorCode: 1000}}
	d := newTestDispatcher(t, func(context.Context, *playfab.TransportRequest) ([]byte, error) {
		return nil, apiErr
	})
	rc := catalog.MustDefault()

	out := dispatchRaw(context.Background(), d, catalog.MustEndpoint[playfab.Raw](rc, "Admin/GetTitleData"), "")
	if out.OK || out.Kind != "transport" || out.Error == nil || out.Error.ErrorName != "InvalidParams" {
		t.Errorf("%s - transport failure output = %+v", mainTestPrefix, out)
	}

	// No entity token configured, so nothing is sent.
	out = dispatchRaw(context.Background(), d, catalog.MustEndpoint[playfab.Raw](rc, "Event/WriteEvents"), "")
	if out.OK || out.Kind != "credentialMissing" || out.Error != nil || out.Message == "" {
		t.Errorf("%s - credential failure output = %+v", mainTestPrefix, out)
	}
}

func TestWriteEndpoints(t *testing.T) {
	var buf bytes.Buffer
	if err := writeEndpoints(&buf, catalog.MustDefault(), "Event"); err != nil {
		t.Fatalf("%s - writeEndpoints: %v", mainTestPrefix, err)
	}
	out := buf.String()
	for _, want := range []string{"PATH", "/Event/WriteTelemetryEvents", "X-TelemetryKey", "X-EntityToken"} {
		if !strings.Contains(out, want) {
			t.Errorf("%s - output should contain %q:\n%s", mainTestPrefix, want, out)
		}
	}
	if strings.Contains(out, "/Admin/") {
		t.Errorf("%s - api filter not applied", mainTestPrefix)
	}
}
