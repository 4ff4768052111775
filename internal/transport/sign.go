package transport

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"strconv"
	"time"
)

// SignParams controls request signing. AK/SK enable it; Tenant/Group feed
// the sign base exactly as the wire protocol specifies.
type SignParams struct {
	AK, SK        string
	Tenant, Group string
}

// enabled reports whether both halves of the credential pair are set.
func (p SignParams) enabled() bool {
	return p.AK != "" && p.SK != ""
}

// headers returns the Spas-* headers for p, or nil if signing is disabled
// or neither tenant nor group is available to build a sign base from.
func (p SignParams) headers(now time.Time) map[string]string {
	if !p.enabled() {
		return nil
	}

	ts := strconv.FormatInt(now.UnixMilli(), 10)

	var signBase string
	switch {
	case p.Tenant != "" && p.Group != "":
		signBase = p.Tenant + "+" + p.Group + "+" + ts
	case p.Tenant != "":
		signBase = p.Tenant + "+" + ts
	case p.Group != "":
		signBase = p.Group + "+" + ts
	default:
		return nil
	}

	mac := hmac.New(sha1.New, []byte(p.SK))
	mac.Write([]byte(signBase))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return map[string]string{
		"Spas-AccessKey": p.AK,
		"timeStamp":      ts,
		"Spas-Signature": signature,
	}
}
