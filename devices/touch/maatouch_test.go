package touch

import (
	"strings"
	"testing"
)

func TestHelper_ShellArgs(t *testing.T) {
	maa := strings.Join(HelperMaaTouch.ShellArgs(), " ")
	if maa != "CLASSPATH=/data/local/tmp/maatouch app_process / com.shxyke.MaaTouch.App" {
		t.Errorf("unexpected maatouch invocation: %q", maa)
	}

	mini := strings.Join(HelperMinitouch.ShellArgs(), " ")
	if mini != "/data/local/tmp/minitouch -i" {
		t.Errorf("unexpected minitouch invocation: %q", mini)
	}
}

func TestHelper_ProbeOrderPrefersMaaTouch(t *testing.T) {
	order := ProbeOrder()
	if len(order) != 2 || order[0] != HelperMaaTouch || order[1] != HelperMinitouch {
		t.Errorf("unexpected probe order: %v", order)
	}
}

func TestHelper_String(t *testing.T) {
	if HelperMaaTouch.String() != "maatouch" || HelperMinitouch.String() != "minitouch" {
		t.Error("helper names changed")
	}
}
