package bptree

// headerPage is the root registry named in §3.1/§4.10/§6: a mapping from
// index name to root page id, stored at the reserved page id
// HeaderPageID (0). It has no teacher equivalent — the teacher persists
// its single root id directly in MetaPage — but this spec names it as
// its own collaborator, so it is its own type here, grounded on the
// BusTub reference's HeaderPage::InsertRecord/UpdateRecord.
//
// Layout within the page, starting right after the generic page header:
// a count of records, followed by fixed 64-byte name slots each holding
// a 4-byte root page id. One tree's worth of indexes easily fits one page
// at this width; this is test/embedding infrastructure, not a general
// catalog.
const (
	headerRecordNameSize = 64
	headerRecordSize     = headerRecordNameSize + 4
	headerCountOffset    = pageHeaderSize
	headerRecordsOffset  = headerCountOffset + 2
)

type headerPage struct {
	bpm *BufferPoolManager
}

func newHeaderPage(bpm *BufferPoolManager) *headerPage {
	return &headerPage{bpm: bpm}
}

func (h *headerPage) recordCount(page *Page) int {
	return int(getUint16(page.data[headerCountOffset : headerCountOffset+2]))
}

func (h *headerPage) setRecordCount(page *Page, n int) {
	putUint16(page.data[headerCountOffset:headerCountOffset+2], uint16(n))
}

func (h *headerPage) recordName(page *Page, i int) string {
	off := headerRecordsOffset + i*headerRecordSize
	raw := page.data[off : off+headerRecordNameSize]
	n := 0
	for n < len(raw) && raw[n] != 0 {
		n++
	}
	return string(raw[:n])
}

func (h *headerPage) recordRootID(page *Page, i int) PageID {
	off := headerRecordsOffset + i*headerRecordSize + headerRecordNameSize
	return PageID(getUint32(page.data[off : off+4]))
}

func (h *headerPage) writeRecord(page *Page, i int, name string, rootID PageID) {
	off := headerRecordsOffset + i*headerRecordSize
	nameBuf := page.data[off : off+headerRecordNameSize]
	for j := range nameBuf {
		nameBuf[j] = 0
	}
	copy(nameBuf, name)
	putUint32(page.data[off+headerRecordNameSize:off+headerRecordNameSize+4], uint32(rootID))
}

func (h *headerPage) find(page *Page, name string) int {
	n := h.recordCount(page)
	for i := 0; i < n; i++ {
		if h.recordName(page, i) == name {
			return i
		}
	}
	return -1
}

// Lookup returns the root page id registered for name, or
// (InvalidPageID, false) if there is no record yet.
func (h *headerPage) Lookup(name string) (PageID, bool, error) {
	page, err := h.bpm.FetchHeaderPage()
	if err != nil {
		return InvalidPageID, false, err
	}
	defer h.bpm.UnpinHeaderPage(false)

	idx := h.find(page, name)
	if idx < 0 {
		return InvalidPageID, false, nil
	}
	return h.recordRootID(page, idx), true, nil
}

// InsertRecord adds a new (name, rootID) record. Called exactly once,
// after the first root is created for an index (§4.10).
func (h *headerPage) InsertRecord(name string, rootID PageID) error {
	page, err := h.bpm.FetchHeaderPage()
	if err != nil {
		return err
	}
	defer func() { _ = h.bpm.UnpinHeaderPage(true) }()

	n := h.recordCount(page)
	h.writeRecord(page, n, name, rootID)
	h.setRecordCount(page, n+1)
	return nil
}

// UpdateRecord overwrites the existing record for name with a new root
// page id. Called on every subsequent root-id change (§4.10).
func (h *headerPage) UpdateRecord(name string, rootID PageID) error {
	page, err := h.bpm.FetchHeaderPage()
	if err != nil {
		return err
	}
	defer func() { _ = h.bpm.UnpinHeaderPage(true) }()

	idx := h.find(page, name)
	if idx < 0 {
		n := h.recordCount(page)
		h.writeRecord(page, n, name, rootID)
		h.setRecordCount(page, n+1)
		return nil
	}
	h.writeRecord(page, idx, name, rootID)
	return nil
}

func putUint16(buf []byte, v uint16) {
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
}

func getUint16(buf []byte) uint16 {
	return uint16(buf[0]) | uint16(buf[1])<<8
}
