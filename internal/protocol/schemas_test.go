package protocol_test

import (
	"encoding/json"
	"testing"

	"tillcraft.ai/internal/protocol"
	"tillcraft.ai/internal/sim/input"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	valid := map[string]string{
		protocol.TypeHello:  `{"type":"HELLO","protocol_version":"0.1","player_name":"farmer"}`,
		protocol.TypeInput:  `{"type":"INPUT","protocol_version":"0.1","events":[{"action":"HOTBAR_1","pressed":true}],"cursors":[[4,-3]]}`,
		protocol.TypePickup: `{"type":"PICKUP","protocol_version":"0.1","drop_id":3}`,
	}
	for typ, raw := range valid {
		if err := protocol.ValidateClientMessage(typ, []byte(raw)); err != nil {
			t.Fatalf("%s: %v", typ, err)
		}
	}
}

func TestSchemas_RejectBadInput(t *testing.T) {
	bad := []string{
		`{"type":"INPUT","protocol_version":"0.1","events":[{"action":"JUMP","pressed":true}]}`,
		`{"type":"INPUT","protocol_version":"0.1","cursors":[[1]]}`,
		`{"type":"INPUT","protocol_version":"0.1","events":[{"action":"INTERACT"}]}`,
		`{"type":"INPUT"}`,
	}
	for _, raw := range bad {
		if err := protocol.ValidateClientMessage(protocol.TypeInput, []byte(raw)); err == nil {
			t.Fatalf("expected rejection: %s", raw)
		}
	}
	if err := protocol.ValidateClientMessage(protocol.TypePickup, []byte(`{"type":"PICKUP","protocol_version":"0.1","drop_id":0}`)); err == nil {
		t.Fatalf("drop id 0 should be rejected")
	}
	if err := protocol.ValidateClientMessage("OBS", []byte(`{}`)); err == nil {
		t.Fatalf("unknown type should be rejected")
	}
}

func TestInputMsg_DecodesActions(t *testing.T) {
	raw := `{"type":"INPUT","protocol_version":"0.1","events":[{"action":"INTERACT","pressed":true},{"action":"ROTATE_CCW","pressed":false}],"cursors":[]}`
	var m protocol.InputMsg
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(m.Events) != 2 || m.Events[0].Action != input.Interact || m.Events[1].Action != input.RotateCounterClockwise {
		t.Fatalf("events: %+v", m.Events)
	}
	if m.Cursors == nil || len(m.Cursors) != 0 {
		t.Fatalf("empty cursors should decode as an empty, non-nil set: %#v", m.Cursors)
	}
}
