// Package core implements the CAS ticket handshake against the campus
// identity provider and hands out an authenticated portal session.
package core

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"jwassist-backend/lib/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/net/publicsuffix"
)

var tracer = otel.Tracer("scrapers/jw/core")

const (
	DefaultIdpUrl    = "https://ids.hit.edu.cn"
	DefaultPortalUrl = "http://jw.hitsz.edu.cn"

	loginPath        = "/authserver/login"
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
)

// AuthError reports which step of the 4-step handshake failed.
type AuthError struct {
	Step string
	Err  error
}

func (e AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("login failed at %s: %s", e.Step, e.Err)
	}
	return fmt.Sprintf("login failed at %s", e.Step)
}

func (e AuthError) Unwrap() error {
	return e.Err
}

type Client struct {
	IdpUrl     *url.URL
	PortalUrl  *url.URL
	ServiceUrl string
	Http       *resty.Client

	loggedIn bool
}

type ClientOptions struct {
	// identity provider origin, DefaultIdpUrl when empty
	IdpUrl string
	// portal origin, DefaultPortalUrl when empty
	PortalUrl string
	// login-completion endpoint passed as the CAS `service`
	// parameter, "<portal>/casLogin" when empty
	ServiceUrl string
	// zero means 30 seconds
	Timeout   time.Duration
	UserAgent string
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.IdpUrl == "" {
		opts.IdpUrl = DefaultIdpUrl
	}
	if opts.PortalUrl == "" {
		opts.PortalUrl = DefaultPortalUrl
	}
	idpUrl, err := url.Parse(opts.IdpUrl)
	if err != nil {
		return nil, err
	}
	portalUrl, err := url.Parse(opts.PortalUrl)
	if err != nil {
		return nil, err
	}
	if opts.ServiceUrl == "" {
		opts.ServiceUrl = opts.PortalUrl + "/casLogin"
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Second * 30
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	client := resty.New()
	// the handshake spans the idp and portal registrable domains
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.SetHeader("user-agent", opts.UserAgent)
	client.SetTimeout(opts.Timeout)
	// redirects carry the CAS ticket, every hop is followed manually
	client.SetRedirectPolicy(resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}))

	telemetry.InstrumentResty(client, "scrapers/jw/http")

	c := &Client{
		IdpUrl:     idpUrl,
		PortalUrl:  portalUrl,
		ServiceUrl: opts.ServiceUrl,
		Http:       client,
	}
	return c, nil
}

func (c *Client) LoggedIn() bool {
	return c.loggedIn
}

type loginPage struct {
	lt        string
	execution string
	salt      string
}

func parseLoginPage(body []byte) (loginPage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		return loginPage{}, err
	}

	page := loginPage{
		lt:        doc.Find("#lt").AttrOr("value", ""),
		execution: doc.Find("input[name=execution]").AttrOr("value", ""),
		salt:      doc.Find("#pwdEncryptSalt").AttrOr("value", ""),
	}
	if page.lt == "" {
		return loginPage{}, fmt.Errorf("could not find login token")
	}
	if page.execution == "" {
		return loginPage{}, fmt.Errorf("could not find execution context")
	}
	if page.salt == "" {
		return loginPage{}, fmt.Errorf("could not find password salt")
	}
	return page, nil
}

// Login runs the fixed 4-step handshake: fetch the login page for its
// embedded tokens and salt, encrypt the password, post the form
// without following redirects and require a ticket-bearing Location,
// then consume the ticket and require a cookie on the portal's domain.
// State is untouched unless every step passes.
func (c *Client) Login(ctx context.Context, username, password string) error {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		SetQueryParam("service", c.ServiceUrl).
		Get(c.IdpUrl.String() + loginPath)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch login page")
		return AuthError{Step: "login page", Err: err}
	}
	if res.IsError() {
		span.SetStatus(codes.Error, "login page returned an error status")
		return AuthError{Step: "login page", Err: fmt.Errorf("status %d", res.StatusCode())}
	}

	page, err := parseLoginPage(res.Body())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse login page")
		return AuthError{Step: "parse login page", Err: err}
	}

	encrypted, err := EncryptPassword(password, page.salt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to encrypt password")
		return AuthError{Step: "encrypt password", Err: err}
	}

	res, err = c.Http.R().
		SetContext(ctx).
		SetQueryParam("service", c.ServiceUrl).
		SetFormData(map[string]string{
			"username":     username,
			"password":     encrypted,
			"passwordText": "",
			"lt":           page.lt,
			"execution":    page.execution,
			"_eventId":     "submit",
			"dllt":         "generalLogin",
			"cllt":         "userNameLogin",
		}).
		Post(c.IdpUrl.String() + loginPath)
	if err != nil {
		span.SetStatus(codes.Error, "failed to post login form")
		return AuthError{Step: "submit credentials", Err: err}
	}

	location := res.Header().Get("Location")
	if res.StatusCode() < 300 || res.StatusCode() >= 400 || !strings.Contains(location, "ticket=") {
		span.SetStatus(codes.Error, "no ticket redirect")
		return AuthError{Step: "ticket", Err: fmt.Errorf("status %d without a ticket redirect", res.StatusCode())}
	}

	ticketUrl, err := c.IdpUrl.Parse(location)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unparseable ticket redirect")
		return AuthError{Step: "ticket", Err: err}
	}

	res, err = c.Http.R().
		SetContext(ctx).
		Get(ticketUrl.String())
	if err != nil {
		span.SetStatus(codes.Error, "failed to consume ticket")
		return AuthError{Step: "consume ticket", Err: err}
	}

	if len(c.Http.GetClient().Jar.Cookies(c.PortalUrl)) == 0 {
		span.SetStatus(codes.Error, "no portal cookie after ticket redirect")
		return AuthError{Step: "portal cookie", Err: fmt.Errorf("portal did not issue a session cookie")}
	}

	c.loggedIn = true
	return nil
}
