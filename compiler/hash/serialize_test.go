package hash

import "testing"

func sampleTree() *HNode {
	return &HNode{Tag: TagModule, Children: []*HNode{
		{Tag: TagExprStmt, Children: []*HNode{
			{Tag: TagBinOp, Text: "+", Children: []*HNode{
				{Tag: TagName, Text: "a"},
				{Tag: TagNum, Text: "42"},
			}},
		}},
	}}
}

func TestSerializeDeterministic(t *testing.T) {
	data1, err := Serialize(sampleTree())
	if err != nil {
		t.Fatal(err)
	}
	data2, err := Serialize(sampleTree())
	if err != nil {
		t.Fatal(err)
	}
	if string(data1) != string(data2) {
		t.Error("serialization is not deterministic")
	}
}

func TestSerializeVersionPrefix(t *testing.T) {
	data, err := Serialize(&HNode{Tag: TagPass})
	if err != nil {
		t.Fatal(err)
	}
	if data[0] != HashVersion {
		t.Errorf("version prefix: got 0x%02X, want 0x%02X", data[0], HashVersion)
	}
	// [tag, text, children] as a three element CBOR array
	if data[1] != 0x83 {
		t.Errorf("node header: got 0x%02X, want 0x83", data[1])
	}
}

func TestDeserialize(t *testing.T) {
	data, err := Serialize(sampleTree())
	if err != nil {
		t.Fatal(err)
	}
	got, err := Deserialize(data)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(sampleTree()) {
		t.Errorf("Deserialize = %+v, want %+v", got, sampleTree())
	}
}

func TestDeserializeErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad version", []byte{0x7F, 0x80}},
		{"truncated", []byte{HashVersion, 0x83, 0x01}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Deserialize(tt.data); err == nil {
				t.Error("expected error")
			}
		})
	}
}
