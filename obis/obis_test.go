package obis

import "testing"

func TestByName(t *testing.T) {
	c, ok := ByName("Active Energy Import")
	if !ok {
		t.Fatal("kWh import missing from catalogue")
	}
	if c.Bytes != [6]byte{0x01, 0x00, 0x01, 0x08, 0x00, 0xff} {
		t.Fatalf("unexpected code %v", c.Bytes)
	}
	if c.ClassID != ClassRegister {
		t.Fatalf("unexpected class %d", c.ClassID)
	}
	if _, ok := ByName("no such thing"); ok {
		t.Fatal("lookup of unknown name succeeded")
	}
}

func TestCatalogueConsistency(t *testing.T) {
	seen := make(map[string]bool)
	for _, c := range All() {
		if seen[c.Name] {
			t.Fatalf("duplicate name %q", c.Name)
		}
		seen[c.Name] = true
		switch c.ClassID {
		case ClassData, ClassRegister, ClassExtendedRegister:
		default:
			t.Fatalf("%s: unexpected class id %d", c.Name, c.ClassID)
		}
		if c.Bytes[5] != 0xff {
			t.Fatalf("%s: billing period byte is %02x, expected ff", c.Name, c.Bytes[5])
		}
	}
	if len(seen) != 23+4*8 {
		t.Fatalf("catalogue has %d entries", len(seen))
	}
}

func TestString(t *testing.T) {
	if s := MDKVAImport.String(); s != "1-0:9.6.0*255" {
		t.Fatalf("unexpected rendering %q", s)
	}
}
