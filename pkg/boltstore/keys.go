package boltstore

import (
	"encoding/binary"

	"github.com/crystal-mush/empireolc/pkg/proto"
)

var (
	bucketMeta = []byte("meta")

	keyVersion = []byte("version")
	keySynced  = []byte("synced")
)

// formatVersion is bumped whenever Entry changes incompatibly.
const formatVersion = 1

// kindBucket names the bucket holding one kind's records.
func kindBucket(k proto.Kind) []byte {
	return []byte("proto." + k.String())
}

// vnumToKey converts a vnum to a 4-byte big-endian key so cursors walk
// records in vnum order.
func vnumToKey(v proto.Vnum) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(v))
	return buf
}

func keyToVnum(b []byte) proto.Vnum {
	return proto.Vnum(binary.BigEndian.Uint32(b))
}
