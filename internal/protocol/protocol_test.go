package protocol

import (
	"strings"
	"testing"
)

func TestEncodeDecode(t *testing.T) {
	data, err := Encode(CmdBuild, BuildRequest{Target: "ub22", Root: "/src", Output: "/out", Clean: true})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	env, raw, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if env.Command != CmdBuild {
		t.Errorf("Command = %q, want %q", env.Command, CmdBuild)
	}

	req, err := DecodePayload[BuildRequest](raw)
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if req.Target != "ub22" || req.Root != "/src" || req.Output != "/out" || !req.Clean {
		t.Errorf("payload = %+v", req)
	}
}

func TestEncodeNoPayload(t *testing.T) {
	data, err := Encode(CmdShutdown, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	env, raw, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if env.Command != CmdShutdown {
		t.Errorf("Command = %q, want %q", env.Command, CmdShutdown)
	}
	if len(raw) != 0 {
		t.Errorf("payload = %q, want none", raw)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{name: "garbage", data: "not json", want: "malformed envelope"},
		{name: "missing command", data: `{"payload":{}}`, want: "no command"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Decode([]byte(tc.data))
			if err == nil {
				t.Fatal("Decode succeeded")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("err = %q, want substring %q", err, tc.want)
			}
		})
	}
}

func TestDecodePayloadErrors(t *testing.T) {
	if _, err := DecodePayload[BuildRequest](nil); err == nil {
		t.Error("DecodePayload accepted a missing payload")
	}
	if _, err := DecodePayload[BuildRequest]([]byte(`[1,2]`)); err == nil {
		t.Error("DecodePayload accepted a mistyped payload")
	}
}
