package devices

import "testing"

func TestParseForwardList(t *testing.T) {
	out := `127.0.0.1:16416 tcp:20000 tcp:20937
127.0.0.1:16416 tcp:20003 tcp:20937
emulator-5554 tcp:20001 tcp:9008
127.0.0.1:16416 tcp:20002 localabstract:minitouch
garbage line
`

	records := parseForwardList(out, "127.0.0.1:16416")
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d: %+v", len(records), records)
	}
	if records[0] != (forwardRecord{Local: 20000, Remote: 20937}) {
		t.Errorf("first record = %+v", records[0])
	}
	if records[1] != (forwardRecord{Local: 20003, Remote: 20937}) {
		t.Errorf("second record = %+v", records[1])
	}

	if got := parseForwardList(out, "emulator-5554"); len(got) != 1 || got[0].Remote != 9008 {
		t.Errorf("emulator records = %+v", got)
	}
	if got := parseForwardList(out, "unknown-serial"); len(got) != 0 {
		t.Errorf("expected no records for unknown serial, got %+v", got)
	}
}

func TestTCPSpecRoundTrip(t *testing.T) {
	if got := tcpSpec(20937); got != "tcp:20937" {
		t.Errorf("tcpSpec = %q", got)
	}

	port, ok := parseTCPSpec("tcp:20937")
	if !ok || port != 20937 {
		t.Errorf("parseTCPSpec(tcp:20937) = (%d, %v)", port, ok)
	}
	if _, ok := parseTCPSpec("localabstract:minitouch"); ok {
		t.Error("parseTCPSpec accepted a non-tcp spec")
	}
	if _, ok := parseTCPSpec("tcp:xyz"); ok {
		t.Error("parseTCPSpec accepted a non-numeric port")
	}
}
