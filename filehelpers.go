package bptree

import (
	"bufio"
	"encoding/binary"
	"os"
)

// InsertFromFile reads whitespace-separated decimal integers from path
// and inserts each as a key, synthesizing its value from the integer
// itself, matching the BusTub reference's InsertFromFile test hook (§6,
// "File format for test helpers"). Each integer is encoded big-endian
// into a key of the tree's configured key size, so ByteComparator's lexicographic order
// matches numeric order for non-negative values.
func (t *Tree) InsertFromFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Split(bufio.ScanWords)
	for scanner.Scan() {
		n, err := parseInt64(scanner.Text())
		if err != nil {
			return err
		}
		key := encodeIntKey(n, t.keySize)
		rid := RID{PageID: uint32(n), SlotNum: 0}
		if _, err := t.Insert(key, rid, nil); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// RemoveFromFile reads whitespace-separated decimal integers from path
// and removes each as a key, matching the BusTub reference's
// RemoveFromFile test hook (§6).
func (t *Tree) RemoveFromFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Split(bufio.ScanWords)
	for scanner.Scan() {
		n, err := parseInt64(scanner.Text())
		if err != nil {
			return err
		}
		key := encodeIntKey(n, t.keySize)
		if err := t.Remove(key, nil); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func encodeIntKey(n int64, keySize int) []byte {
	key := make([]byte, keySize)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(n))
	if keySize >= 8 {
		copy(key[keySize-8:], buf[:])
	} else {
		copy(key, buf[8-keySize:])
	}
	return key
}

func parseInt64(s string) (int64, error) {
	var n int64
	neg := false
	i := 0
	if len(s) > 0 && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		i = 1
	}
	for ; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, ErrKeyWrongSize
		}
		n = n*10 + int64(c-'0')
	}
	if neg {
		n = -n
	}
	return n, nil
}
