package acm

import (
	"testing"
	"time"
)

func TestDefaultOptionsValidate(t *testing.T) {
	o := defaultOptions()
	o.Endpoint = "acm.example.com"
	if err := o.validate(); err != nil {
		t.Fatalf("defaults should validate once Endpoint is set: %v", err)
	}
}

func TestValidateRejectsMissingEndpoint(t *testing.T) {
	o := defaultOptions()
	if err := o.validate(); err == nil {
		t.Fatalf("expected validation error for missing endpoint")
	}
}

func TestAuthEnabledRequiresBothKeys(t *testing.T) {
	o := defaultOptions()
	if o.authEnabled() {
		t.Fatalf("expected authEnabled() false with no credentials")
	}

	o.AccessKey = "ak"
	if o.authEnabled() {
		t.Fatalf("expected authEnabled() false with only an access key")
	}

	o.SecretKey = "sk"
	if !o.authEnabled() {
		t.Fatalf("expected authEnabled() true once both keys are set")
	}
}

func TestCAIEnabledDefaultsTrue(t *testing.T) {
	o := defaultOptions()
	if !o.caiEnabled() {
		t.Fatalf("expected CAI resolution enabled by default")
	}
}

func TestWithCAIOverride(t *testing.T) {
	o := defaultOptions()
	WithCAI(false)(&o)
	if o.caiEnabled() {
		t.Fatalf("expected caiEnabled() false after WithCAI(false)")
	}
}

func TestWithTimeoutsOverridesBoth(t *testing.T) {
	o := defaultOptions()
	WithTimeouts(7*time.Second, 11*time.Second)(&o)
	if o.DefaultTimeout != 7*time.Second || o.PullingTimeout != 11*time.Second {
		t.Fatalf("got %v/%v", o.DefaultTimeout, o.PullingTimeout)
	}
}

func TestNormalizeNamespaceMapsDefaultSentinelToEmpty(t *testing.T) {
	o := defaultOptions()
	o.Namespace = "[default]"
	o.normalizeNamespace()
	if o.Namespace != "" {
		t.Fatalf("got namespace %q, want empty", o.Namespace)
	}
}

func TestNormalizeNamespaceLeavesOthersUntouched(t *testing.T) {
	o := defaultOptions()
	o.Namespace = "tenant-x"
	o.normalizeNamespace()
	if o.Namespace != "tenant-x" {
		t.Fatalf("got namespace %q", o.Namespace)
	}
}

func TestWithLocalCacheDirsOverridesBoth(t *testing.T) {
	o := defaultOptions()
	WithLocalCacheDirs("/tmp/fo", "/tmp/sn")(&o)
	if o.FailoverBase != "/tmp/fo" || o.SnapshotBase != "/tmp/sn" {
		t.Fatalf("got %q/%q", o.FailoverBase, o.SnapshotBase)
	}
}
