package api

import "testing"

func TestDecodeClientMessageParsesKnownFields(t *testing.T) {
	raw := []byte(`{"type":"start_gas_coin_mining","prefix":"dead","split_amounts":[1,2,3],"threads":4}`)
	msg, err := decodeClientMessage(raw)
	if err != nil {
		t.Fatalf("decodeClientMessage: %v", err)
	}
	if msg.Type != TypeStartGasCoinMining {
		t.Fatalf("Type = %q, want %q", msg.Type, TypeStartGasCoinMining)
	}
	if msg.Prefix != "dead" || msg.Threads != 4 || len(msg.SplitAmounts) != 3 {
		t.Fatalf("unexpected decode: %+v", msg)
	}
}

func TestDecodeClientMessageRejectsMalformedJSON(t *testing.T) {
	if _, err := decodeClientMessage([]byte(`{not json`)); err == nil {
		t.Fatal("expected an error decoding malformed JSON")
	}
}
