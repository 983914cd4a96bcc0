package mws

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/url"
	"sort"
	"strings"
)

// Signer adds authentication to a set of request parameters.
type Signer interface {
	Sign(method, host, path string, params url.Values)
}

// SignatureV2 is the HmacSHA256 query signature used by MWS sections.
type SignatureV2 struct {
	SecretKey string
}

func (s SignatureV2) Sign(method, host, path string, params url.Values) {
	params.Del("Signature")
	params.Set("SignatureVersion", "2")
	params.Set("SignatureMethod", "HmacSHA256")

	if path == "" {
		path = "/"
	}
	toSign := strings.Join([]string{
		strings.ToUpper(method),
		strings.ToLower(host),
		path,
		canonicalQuery(params),
	}, "\n")

	mac := hmac.New(sha256.New, []byte(s.SecretKey))
	mac.Write([]byte(toSign))
	params.Set("Signature", base64.StdEncoding.EncodeToString(mac.Sum(nil)))
}

// canonicalQuery sorts parameters by name and percent-encodes them per
// RFC 3986, which differs from url.Values.Encode for space, '*' and '~'.
func canonicalQuery(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		for _, v := range params[k] {
			parts = append(parts, rfc3986(k)+"="+rfc3986(v))
		}
	}
	return strings.Join(parts, "&")
}

func rfc3986(s string) string {
	e := url.QueryEscape(s)
	e = strings.ReplaceAll(e, "+", "%20")
	e = strings.ReplaceAll(e, "*", "%2A")
	return strings.ReplaceAll(e, "%7E", "~")
}
