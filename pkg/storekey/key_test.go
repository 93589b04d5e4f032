package storekey

import (
	"testing"

	"github.com/benji-go/corestore/pkg/types"
)

func TestBlockKeyRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		uid  types.BlockUid
	}{
		{name: "small values", uid: types.BlockUid{Left: 0x1, Right: 0x2}},
		{name: "max values", uid: types.BlockUid{Left: ^uint64(0), Right: ^uint64(0)}},
		{name: "zero", uid: types.BlockUid{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := BlockKey(tt.uid)
			if got := len(key); got <= len(BlocksPrefix)+6 {
				t.Fatalf("BlockKey() produced too-short key %q", key)
			}

			got, err := KeyToBlockUid(key)
			if err != nil {
				t.Fatalf("KeyToBlockUid() error = %v", err)
			}
			if got != tt.uid {
				t.Errorf("KeyToBlockUid() = %+v, want %+v", got, tt.uid)
			}
		})
	}
}

func TestVersionKeyRoundTrip(t *testing.T) {
	uid := types.VersionUid(1)
	key := VersionKey(uid)

	got, err := KeyToVersionUid(key)
	if err != nil {
		t.Fatalf("KeyToVersionUid() error = %v", err)
	}
	if got != uid {
		t.Errorf("KeyToVersionUid() = %v, want %v", got, uid)
	}
}

func TestKeyToBlockUid_StrayObjects(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{name: "wrong prefix", key: "versions/ab/cd/0000000000000001-0000000000000002"},
		{name: "too short", key: "blocks/ab"},
		{name: "not a uid", key: BlocksPrefix + "xx/yy/not-a-uid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := KeyToBlockUid(tt.key); err == nil {
				t.Errorf("KeyToBlockUid(%q) expected error, got nil", tt.key)
			}
		})
	}
}

func TestFromKey_InvalidPrefix(t *testing.T) {
	if _, err := FromKey(BlocksPrefix, "not-blocks/ab/cd/x"); err == nil {
		t.Error("FromKey() expected error for mismatched prefix")
	}
}

func TestMetaKey(t *testing.T) {
	key := BlockKey(types.BlockUid{Left: 1, Right: 2})
	if got := MetaKey(key); got != key+".meta" {
		t.Errorf("MetaKey() = %q, want %q", got, key+".meta")
	}
}
