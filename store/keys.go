package store

import "encoding/binary"

// Key tags for the name database. A single-byte tag keeps every family in
// its own contiguous lexicographic range so BatchRead(prefix, ...) can walk
// one without touching the others.
const (
	tagEntry   byte = 'n' // 'n' ∥ name -> gob(NameData)
	tagHistory byte = 'h' // 'h' ∥ name -> gob(NameHistory)
	tagExpire  byte = 'x' // 'x' ∥ height(BE u32) ∥ name -> empty (membership)
	tagUndo    byte = 'u' // 'u' ∥ height(BE u32) [∥ txid] -> gob(names.BlockUndo) for the bare height key
	tagStatus  byte = 's' // 's' -> gob(NameStats), a single fixed record
)

// StatusKey addresses the single NameStats record the database carries:
// a schema version and a diagnostic name count, checked at startup.
func StatusKey() []byte {
	return []byte{tagStatus}
}

// EntryKey addresses the current NameData record for name.
func EntryKey(name []byte) []byte {
	k := make([]byte, 1+len(name))
	k[0] = tagEntry
	copy(k[1:], name)
	return k
}

// HistoryKey addresses the full registration history for name.
func HistoryKey(name []byte) []byte {
	k := make([]byte, 1+len(name))
	k[0] = tagHistory
	copy(k[1:], name)
	return k
}

// ExpireIndexPrefix returns the tag byte alone, i.e. the prefix that spans
// every expiration-index entry regardless of height.
func ExpireIndexPrefix() []byte {
	return []byte{tagExpire}
}

// ExpireHeightPrefix returns the prefix spanning every expire-index entry
// at exactly the given height, letting callers scan or bound a height
// bucket without decoding names.
func ExpireHeightPrefix(height uint32) []byte {
	k := make([]byte, 5)
	k[0] = tagExpire
	binary.BigEndian.PutUint32(k[1:], height)
	return k
}

// ExpireKeyBytes serializes the (height, name) expire-index key so its
// byte order matches numeric height order, then lexicographic name order.
func ExpireKeyBytes(height uint32, name []byte) []byte {
	k := make([]byte, 5+len(name))
	k[0] = tagExpire
	binary.BigEndian.PutUint32(k[1:5], height)
	copy(k[5:], name)
	return k
}

// ParseExpireKey decodes a key produced by ExpireKeyBytes, returning the
// height and the name portion (a view into key's backing array).
func ParseExpireKey(key []byte) (height uint32, name []byte, ok bool) {
	if len(key) < 5 || key[0] != tagExpire {
		return 0, nil, false
	}
	return binary.BigEndian.Uint32(key[1:5]), key[5:], true
}

// UndoKey addresses the undo records recorded while connecting the block
// at height for the transaction identified by txid, so disconnecting that
// block can find and reverse them without a linear scan.
func UndoKey(height uint32, txid []byte) []byte {
	k := make([]byte, 5+len(txid))
	k[0] = tagUndo
	binary.BigEndian.PutUint32(k[1:5], height)
	copy(k[5:], txid)
	return k
}

// UndoHeightPrefix bounds every undo record recorded at height, used when
// disconnecting a whole block.
func UndoHeightPrefix(height uint32) []byte {
	k := make([]byte, 5)
	k[0] = tagUndo
	binary.BigEndian.PutUint32(k[1:], height)
	return k
}

// NameFromEntryKey strips the tag byte, returning the raw name.
func NameFromEntryKey(key []byte) []byte {
	if len(key) < 1 {
		return nil
	}
	return key[1:]
}
