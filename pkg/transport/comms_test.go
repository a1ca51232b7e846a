package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/playfab-sdk/internal/commstest"
	"github.com/morezero/playfab-sdk/pkg/catalog"
	"github.com/morezero/playfab-sdk/pkg/commsutil"
	"github.com/morezero/playfab-sdk/pkg/playfab"
	"github.com/morezero/playfab-sdk/pkg/relay"
)

const commsTestPrefix = "transport:comms_test"

// serveRelay answers relay requests on subject using upstream.
func serveRelay(t *testing.T, nc *comms.Conn, subject string, upstream playfab.TransportFunc) {
	t.Helper()
	r, err := relay.NewRelay(relay.RelayParams{Catalog: catalog.MustDefault(), Upstream: upstream})
	if err != nil {
		t.Fatal(err)
	}
	sub, err := nc.Subscribe(subject, func(msg *comms.Msg) {
		req, err := commsutil.DecodeAs[relay.RelayRequest](msg.Data)
		if err != nil {
			t.Errorf("%s - decode relay request: %v", commsTestPrefix, err)
			return
		}
		data, _ := commsutil.EncodePayload(r.Handle(context.Background(), &req))
		msg.Respond(data)
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { sub.Unsubscribe() })
	if err := nc.Flush(); err != nil {
		t.Fatal(err)
	}
}

func TestNewCommsTransport_RequiresConn(t *testing.T) {
	if _, err := NewCommsTransport(CommsTransportParams{}); err == nil {
		t.Errorf("%s - expected error without connection", commsTestPrefix)
	}
}

func TestCommsTransport_RoundTrip(t *testing.T) {
	nc, _ := commstest.StartServer(t)
	seenCh := make(chan *playfab.TransportRequest, 1)
	serveRelay(t, nc, commsutil.SubjectRelay, func(_ context.Context, req *playfab.TransportRequest) ([]byte, error) {
		seenCh <- req
		return []byte(`{"code":200,"status":"OK","data":{"TicketId":"tk-1"}}`), nil
	})

	tr, err := NewCommsTransport(CommsTransportParams{Conn: nc})
	if err != nil {
		t.Fatal(err)
	}
	d, err := playfab.NewDispatcher(playfab.DispatcherParams{
		Transport:   tr,
		AuthContext: &playfab.AuthContext{EntityToken: "ent"},
	})
	if err != nil {
		t.Fatal(err)
	}

	type ticket struct {
		TicketID string `json:"TicketId"`
	}
	ep := playfab.NewEndpoint[ticket]("/Match/CreateMatchmakingTicket", playfab.AuthEntityToken)
	out := playfab.Dispatch(context.Background(), d, ep, playfab.Request[string]{
		Payload:    map[string]any{"QueueName": "ranked"},
		CustomData: "corr-1",
	})

	res, ok := out.Result()
	if !ok {
		t.Fatalf("%s - unexpected failure: %v", commsTestPrefix, out.Err())
	}
	if res.TicketID != "tk-1" || out.CustomData() != "corr-1" {
		t.Errorf("%s - result = %+v customData = %q", commsTestPrefix, res, out.CustomData())
	}
	seen := <-seenCh
	if seen.HeaderName != playfab.HeaderEntityToken || seen.HeaderValue != "ent" || string(seen.Body) != `{"QueueName":"ranked"}` {
		t.Errorf("%s - relay saw %+v", commsTestPrefix, seen)
	}
}

func TestCommsTransport_RelayRejection(t *testing.T) {
	nc, _ := commstest.StartServer(t)
	serveRelay(t, nc, "playfab.relay.test", func(context.Context, *playfab.TransportRequest) ([]byte, error) {
		return nil, errors.New("must not be called")
	})

	tr, err := NewCommsTransport(CommsTransportParams{Conn: nc, Subject: "playfab.relay.test"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = tr.DoPost(context.Background(), &playfab.TransportRequest{Path: "/Nope/Nope", Body: []byte(`{}`)})

	var apiErr *playfab.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("%s - expected *APIError, got %T", commsTestPrefix, err)
	}
	if apiErr.HTTPCode != 404 || apiErr.ErrorName != relay.CodeEndpointNotFound {
		t.Errorf("%s - unexpected error %+v", commsTestPrefix, apiErr.ErrorInfo)
	}
}

func TestCommsTransport_UpstreamAPIError(t *testing.T) {
	nc, _ := commstest.StartServer(t)
	serveRelay(t, nc, commsutil.SubjectRelay, func(context.Context, *playfab.TransportRequest) ([]byte, error) {
		return nil, &playfab.APIError{ErrorInfo: playfab.ErrorInfo{HTTPCode: 400, HTTPStatus: "BadRequest", ErrorName: "InvalidParams", ErrorCode: 1000}}
	})

	tr, _ := NewCommsTransport(CommsTransportParams{Conn: nc})
	_, err := tr.DoPost(context.Background(), &playfab.TransportRequest{
		Path: "/Admin/GetTitleData", Body: []byte(`{}`), HeaderName: playfab.HeaderSecretKey, HeaderValue: "k",
	})

	var apiErr *playfab.APIError
	if !errors.As(err, &apiErr) || apiErr.ErrorCode != 1000 || apiErr.HTTPCode != 400 {
		t.Errorf("%s - expected upstream InvalidParams, got %v", commsTestPrefix, err)
	}
}

func TestCommsTransport_NoResponders(t *testing.T) {
	nc, _ := commstest.StartServer(t)
	tr, _ := NewCommsTransport(CommsTransportParams{Conn: nc, Subject: "playfab.relay.nobody", Timeout: time.Second})

	_, err := tr.DoPost(context.Background(), &playfab.TransportRequest{Path: "/Admin/GetTitleData", Body: []byte(`{}`)})
	var apiErr *playfab.APIError
	if !errors.As(err, &apiErr) || apiErr.HTTPCode != 503 || apiErr.Cause == nil {
		t.Errorf("%s - expected ServiceUnavailable, got %v", commsTestPrefix, err)
	}
}

func TestCommsTransport_SendsDeadline(t *testing.T) {
	nc, _ := commstest.StartServer(t)
	reqCh := make(chan relay.RelayRequest, 1)
	sub, err := nc.Subscribe(commsutil.SubjectRelay, func(msg *comms.Msg) {
		req, _ := commsutil.DecodeAs[relay.RelayRequest](msg.Data)
		reqCh <- req
		data, _ := commsutil.EncodePayload(&relay.RelayResponse{ID: req.ID, Ok: true, Body: []byte(`{"data":{}}`)})
		msg.Respond(data)
	})
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Unsubscribe()

	tr, _ := NewCommsTransport(CommsTransportParams{Conn: nc, Timeout: 2 * time.Second})
	if _, err := tr.DoPost(context.Background(), &playfab.TransportRequest{Path: "/Client/LoginWithCustomID"}); err != nil {
		t.Fatalf("%s - DoPost: %v", commsTestPrefix, err)
	}
	req := <-reqCh
	if req.TimeoutMs <= 0 || req.TimeoutMs > 2000 {
		t.Errorf("%s - TimeoutMs = %d, want (0, 2000]", commsTestPrefix, req.TimeoutMs)
	}
	if req.ID == "" {
		t.Errorf("%s - request id must be set", commsTestPrefix)
	}
}
