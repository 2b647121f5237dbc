// Package jw issues authenticated requests against the academic
// affairs portal's JSON endpoints and maps the abbreviated response
// fields into typed records.
package jw

import (
	"context"
	"encoding/json"
	"fmt"

	"jwassist-backend/lib/scrapers/jw/core"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/jw")

// GatewayError reports a non-2xx status or an undecodable payload
// from an authenticated portal endpoint.
type GatewayError struct {
	Endpoint string
	Status   int
	Err      error
}

func (e GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("portal endpoint %s failed (status %d): %s", e.Endpoint, e.Status, e.Err)
	}
	return fmt.Sprintf("portal endpoint %s failed (status %d)", e.Endpoint, e.Status)
}

func (e GatewayError) Unwrap() error {
	return e.Err
}

// undecodable reports whether the endpoint answered successfully but
// with a payload that did not match the expected shape.
func (e GatewayError) undecodable() bool {
	return e.Status >= 200 && e.Status < 300 && e.Err != nil
}

// SchemaError reports a successful response that is missing an
// expected nested field.
type SchemaError struct {
	Endpoint string
	Field    string
}

func (e SchemaError) Error() string {
	return fmt.Sprintf("portal endpoint %s response is missing %s", e.Endpoint, e.Field)
}

type bodyKind int

const (
	// the portal rejects some endpoints when content-type is present
	bodyNone bodyKind = iota
	bodyJson
	bodyForm
)

// per-endpoint header/payload configuration, reproduced exactly from
// the portal's own frontend: getting any of these wrong yields an
// empty 200 or a login redirect instead of data.
type endpoint struct {
	name       string
	path       string
	referer    string
	body       bodyKind
	acceptJson bool
}

var (
	epGrades = endpoint{
		name: "grades", path: "/cjgl/grcjcx/grcjcx",
		referer: "/cjgl/grcjcx/go/1", body: bodyJson, acceptJson: true,
	}
	epGpa = endpoint{
		name: "gpa", path: "/cjgl/grcjcx/getgpa",
		referer: "/cjgl/grcjcx/go/1", body: bodyForm,
	}
	epCurrentSemester = endpoint{
		name: "current-semester", path: "/kbfbsz/querydqxnxq",
		referer: "/cdkb/querycdzy", body: bodyNone,
	}
	epBuildings = endpoint{
		name: "buildings", path: "/pksd/queryjxlList",
		referer: "/cdkb/querycdzy", body: bodyNone,
	}
	epSemesters = endpoint{
		name: "semesters", path: "/component/queryXnxqCdjy",
		referer: "/cdkb/querycdzy", body: bodyForm,
	}
	epClassrooms = endpoint{
		name: "classrooms", path: "/cdkb/querycdzyleftzhou",
		referer: "/cdkb/querycdzy", body: bodyForm, acceptJson: true,
	}
	epOccupancies = endpoint{
		name: "occupancies", path: "/cdkb/querycdzyrightzhou",
		referer: "/cdkb/querycdzy", body: bodyForm,
	}
	epMonthCalendar = endpoint{
		name: "month-calendar", path: "/Xiaoli/queryMonthList",
		referer: "/Xiaoli/query", body: bodyForm,
	}
)

type Client struct {
	Core *core.Client

	username string
	password string
}

func NewClient(coreClient *core.Client, username, password string) *Client {
	return &Client{
		Core:     coreClient,
		username: username,
		password: password,
	}
}

// EnsureSession logs in lazily: every fetch goes through here so the
// first portal call of the process triggers the handshake.
func (c *Client) EnsureSession(ctx context.Context) error {
	if c.Core.LoggedIn() {
		return nil
	}
	return c.Core.Login(ctx, c.username, c.password)
}

// call posts to an endpoint with its fixed header set and decodes the
// JSON response into out. body is a JSON-marshalable payload for
// bodyJson endpoints and a pre-encoded string for bodyForm ones.
func (c *Client) call(ctx context.Context, ep endpoint, body any, out any) error {
	ctx, span := tracer.Start(ctx, "call:"+ep.name)
	defer span.End()

	err := c.EnsureSession(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to establish session")
		return err
	}

	accept := "*/*"
	if ep.acceptJson {
		accept = "application/json, text/javascript, */*; q=0.01"
	}

	req := c.Core.Http.R().
		SetContext(ctx).
		SetHeader("accept", accept).
		SetHeader("accept-language", "zh-CN,zh;q=0.9").
		SetHeader("cache-control", "no-cache").
		SetHeader("pragma", "no-cache").
		SetHeader("rolecode", "01").
		SetHeader("x-requested-with", "XMLHttpRequest").
		SetHeader("referer", c.Core.PortalUrl.String()+ep.referer)

	switch ep.body {
	case bodyJson:
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		req.SetHeader("content-type", "application/json").
			SetBody(encoded)
	case bodyForm:
		req.SetHeader("content-type", "application/x-www-form-urlencoded; charset=UTF-8")
		if body != nil {
			req.SetBody(body)
		}
	case bodyNone:
	}

	res, err := req.Post(c.Core.PortalUrl.String() + ep.path)
	if err != nil {
		span.SetStatus(codes.Error, "request failed")
		return GatewayError{Endpoint: ep.name, Err: err}
	}
	if res.IsError() {
		span.SetStatus(codes.Error, "error status")
		return GatewayError{Endpoint: ep.name, Status: res.StatusCode()}
	}

	err = json.Unmarshal(res.Body(), out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "undecodable response")
		return GatewayError{Endpoint: ep.name, Status: res.StatusCode(), Err: err}
	}
	return nil
}
