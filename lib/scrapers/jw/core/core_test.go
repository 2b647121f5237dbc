package core

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

const testSalt = "rjBFAaHsNkKAhpoN"
const testPassword = "@96236007Sc"

type fakeCampus struct {
	idp    *httptest.Server
	portal *httptest.Server

	omitSalt     bool
	omitTicket   bool
	omitCookie   bool
	rejectLogins bool
}

func decryptPassword(t *testing.T, blob string) string {
	raw, err := base64.StdEncoding.DecodeString(blob)
	require.NoError(t, err)
	block, err := aes.NewCipher([]byte(testSalt))
	require.NoError(t, err)
	decrypted := make([]byte, len(raw))
	cipher.NewCBCDecrypter(block, make([]byte, aes.BlockSize)).CryptBlocks(decrypted, raw)
	decrypted = decrypted[:len(decrypted)-int(decrypted[len(decrypted)-1])]
	return string(decrypted[cipherNoiseLength:])
}

func (f *fakeCampus) loginPage(w http.ResponseWriter) {
	salt := fmt.Sprintf(`<input type="hidden" id="pwdEncryptSalt" value="%s"/>`, testSalt)
	if f.omitSalt {
		salt = ""
	}
	fmt.Fprintf(w, `<html><body><form id="pwdFromId">
<input type="hidden" id="lt" name="lt" value="LT-20250217-001"/>
<input type="hidden" name="execution" value="e1s1"/>
%s
</form></body></html>`, salt)
}

func (f *fakeCampus) handleLogin(t *testing.T, w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		f.loginPage(w)
		return
	}

	require.NoError(t, r.ParseForm())
	require.Equal(t, "LT-20250217-001", r.PostFormValue("lt"))
	require.Equal(t, "e1s1", r.PostFormValue("execution"))
	require.Equal(t, "submit", r.PostFormValue("_eventId"))

	if f.rejectLogins || decryptPassword(t, r.PostFormValue("password")) != testPassword {
		f.loginPage(w)
		return
	}

	service := r.URL.Query().Get("service")
	require.NotEmpty(t, service)
	location := service + "?ticket=ST-0001-abcdef"
	if f.omitTicket {
		location = service
	}
	w.Header().Set("Location", location)
	w.WriteHeader(http.StatusFound)
}

func (f *fakeCampus) handleCasLogin(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("ticket") == "" || f.omitCookie {
		w.WriteHeader(http.StatusOK)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "deadbeef", Path: "/"})
	w.Header().Set("Location", "/")
	w.WriteHeader(http.StatusFound)
}

func setupCampus(t *testing.T) *fakeCampus {
	f := &fakeCampus{}

	idpMux := http.NewServeMux()
	idpMux.HandleFunc("/authserver/login", func(w http.ResponseWriter, r *http.Request) {
		f.handleLogin(t, w, r)
	})
	f.idp = httptest.NewServer(idpMux)
	t.Cleanup(f.idp.Close)

	portalMux := http.NewServeMux()
	portalMux.HandleFunc("/casLogin", f.handleCasLogin)
	f.portal = httptest.NewServer(portalMux)
	t.Cleanup(f.portal.Close)

	return f
}

func (f *fakeCampus) newClient(t *testing.T) *Client {
	client, err := NewClient(ClientOptions{
		IdpUrl:    f.idp.URL,
		PortalUrl: f.portal.URL,
	})
	require.NoError(t, err)
	return client
}

func TestLogin(t *testing.T) {
	campus := setupCampus(t)
	client := campus.newClient(t)

	err := client.Login(context.Background(), "210110703", testPassword)
	require.NoError(t, err)
	require.True(t, client.LoggedIn())

	portalUrl, err := url.Parse(campus.portal.URL)
	require.NoError(t, err)
	require.NotEmpty(t, client.Http.GetClient().Jar.Cookies(portalUrl))
}

func TestLoginRejectedCredentials(t *testing.T) {
	campus := setupCampus(t)
	client := campus.newClient(t)

	err := client.Login(context.Background(), "210110703", "wrong-password")
	var autherr AuthError
	require.ErrorAs(t, err, &autherr)
	require.Equal(t, "ticket", autherr.Step)
	require.False(t, client.LoggedIn())
}

func TestLoginRedirectWithoutTicket(t *testing.T) {
	campus := setupCampus(t)
	campus.omitTicket = true
	client := campus.newClient(t)

	err := client.Login(context.Background(), "210110703", testPassword)
	var autherr AuthError
	require.ErrorAs(t, err, &autherr)
	require.Equal(t, "ticket", autherr.Step)
	require.False(t, client.LoggedIn())
}

func TestLoginMissingSalt(t *testing.T) {
	campus := setupCampus(t)
	campus.omitSalt = true
	client := campus.newClient(t)

	err := client.Login(context.Background(), "210110703", testPassword)
	var autherr AuthError
	require.ErrorAs(t, err, &autherr)
	require.Equal(t, "parse login page", autherr.Step)
	require.False(t, client.LoggedIn())
}

func TestLoginWithoutPortalCookie(t *testing.T) {
	campus := setupCampus(t)
	campus.omitCookie = true
	client := campus.newClient(t)

	err := client.Login(context.Background(), "210110703", testPassword)
	var autherr AuthError
	require.ErrorAs(t, err, &autherr)
	require.Equal(t, "portal cookie", autherr.Step)
	require.False(t, client.LoggedIn())
}
