package amigo

import (
	"bytes"
	"testing"

	"github.com/hpamigo/amigoemu/chs"
	"github.com/hpamigo/amigoemu/image"
	"github.com/hpamigo/amigoemu/model"
)

type memImage struct {
	sectors [][]byte
}

func newMemImage(n uint32) *memImage {
	m := &memImage{sectors: make([][]byte, n)}
	for i := range m.sectors {
		m.sectors[i] = make([]byte, image.SectorSize)
	}
	return m
}

func (m *memImage) ReadSector(lba uint32, buf []byte) error {
	copy(buf, m.sectors[lba])
	return nil
}

func (m *memImage) WriteSector(lba uint32, buf []byte) error {
	copy(m.sectors[lba], buf)
	return nil
}

func (m *memImage) Fill(sectors uint32, filler byte) error {
	for i := uint32(0); i < sectors; i++ {
		for j := range m.sectors[i] {
			m.sectors[i][j] = filler
		}
	}
	return nil
}

func (m *memImage) Close() error { return nil }

type fakeSender struct {
	data    [][]byte
	eoi     []bool
	ppBytes []byte
}

func (f *fakeSender) SendData(data []byte, eoiAtEnd bool) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	f.data = append(f.data, cp)
	f.eoi = append(f.eoi, eoiAtEnd)
	return nil
}

func (f *fakeSender) SendPPState(b byte) error {
	f.ppBytes = append(f.ppBytes, b)
	return nil
}

var testGeom = chs.Geometry{Cylinders: 77, Heads: 2, Sectors: 30}

func testModel() model.Fixed {
	return model.Fixed{
		Name:            "test",
		Identify:        [2]byte{0x00, 0x81},
		Geometry:        testGeom,
		Units:           2,
		IgnoreFmtFiller: false,
	}
}

func newTestDrive(images ...image.Image) (*Drive, *fakeSender) {
	s := &fakeSender{}
	d := NewDrive(testModel(), images, s)
	return d, s
}

func clearUnitReady(d *Drive, unit int) {
	// DSJ starts at the power-up sentinel 2, which holds off every other
	// gated command; reading it once settles DSJ to 0 so ReqStatus can
	// then clear the unit's F bit.
	if d.DSJ == 2 {
		d.Execute(Command{Kind: KindDSJ})
	}
	d.Execute(Command{Kind: KindReqStatus, Unit: unit})
	// ReqStatus arms WaitSendStatus; a real host always follows up with a
	// talk-addressed SendStatus to drain it back to idle.
	d.Execute(Command{Kind: KindSendStatus})
}

func TestNewDriveUnitReadiness(t *testing.T) {
	d, _ := newTestDrive(newMemImage(testGeom.MaxLBA()), nil)
	if d.Units[0].SS != 0 || !d.Units[0].F {
		t.Fatalf("unit 0 with image: got SS=%d F=%v", d.Units[0].SS, d.Units[0].F)
	}
	if d.Units[1].SS != 3 || d.Units[1].F {
		t.Fatalf("unit 1 without image: got SS=%d F=%v", d.Units[1].SS, d.Units[1].F)
	}
}

func TestSeekRequiresStatusClearFirst(t *testing.T) {
	d, _ := newTestDrive(newMemImage(testGeom.MaxLBA()))
	d.Execute(Command{Kind: KindDSJ}) // settle DSJ 2->0, without touching F
	d.Execute(Command{Kind: KindSeek, Unit: 0, CHS: chs.New(5, 1, 10)})
	if d.Stat1 != ErrStat2 {
		t.Fatalf("seek on unit still reporting F: got Stat1=%#x, want Stat2", d.Stat1)
	}

	clearUnitReady(d, 0)
	d.Execute(Command{Kind: KindSeek, Unit: 0, CHS: chs.New(5, 1, 10)})
	// a completed seek always reports Attention on Stat1; DSJ, not Stat1,
	// is what tells the host whether that attention is an actual error.
	if d.Stat1 != ErrAttention {
		t.Fatalf("seek after status clear: got Stat1=%#x, want Attention", d.Stat1)
	}
	if d.DSJ != 0 {
		t.Fatalf("seek after status clear: got DSJ=%d, want 0", d.DSJ)
	}
	wantLBA, _ := chs.New(5, 1, 10).ToLBA(testGeom)
	if d.Units[0].CurrentLBA != wantLBA {
		t.Fatalf("got lba %d, want %d", d.Units[0].CurrentLBA, wantLBA)
	}
	if !d.Units[0].A {
		t.Fatalf("expected A bit set after seek")
	}
}

func TestSeekOutOfRangeSetsC(t *testing.T) {
	d, _ := newTestDrive(newMemImage(testGeom.MaxLBA()))
	clearUnitReady(d, 0)
	d.Execute(Command{Kind: KindSeek, Unit: 0, CHS: chs.New(200, 0, 0)})
	if !d.Units[0].C {
		t.Fatalf("expected C bit set for out-of-range seek")
	}
	if d.Units[0].CurrentLBA != 0 {
		t.Fatalf("expected cursor left untouched by a failed seek, got %d", d.Units[0].CurrentLBA)
	}
}

func TestReqStatusUnknownUnitStillTouchesCurrent(t *testing.T) {
	d, _ := newTestDrive(newMemImage(testGeom.MaxLBA()))
	d.Execute(Command{Kind: KindDSJ})
	d.Execute(Command{Kind: KindReqStatus, Unit: 9})
	if d.Status[0] != ErrNoUnit || d.Status[1] != 9 {
		t.Fatalf("got status %v", d.Status)
	}
	if d.Units[0].A || d.Units[0].F || d.Units[0].C {
		t.Fatalf("expected unit 0 bits cleared even on bad unit number")
	}
}

func TestBuffWrThenReceiveDataWritesSector(t *testing.T) {
	img := newMemImage(testGeom.MaxLBA())
	d, _ := newTestDrive(img)
	clearUnitReady(d, 0)

	d.Execute(Command{Kind: KindBuffWr, Unit: 0})
	if d.SeqState != SeqWaitReceiveData {
		t.Fatalf("got seq state %d, want WaitReceiveData", d.SeqState)
	}

	payload := bytes.Repeat([]byte{0xAB}, image.SectorSize)
	d.Execute(Command{Kind: KindReceiveData, Bytes: payload})
	if d.SeqState != SeqIdle {
		t.Fatalf("got seq state %d after receive, want idle", d.SeqState)
	}

	got := make([]byte, image.SectorSize)
	img.ReadSector(0, got)
	if !bytes.Equal(got, payload) {
		t.Fatalf("sector not written as expected")
	}
}

func TestBuffRdReadsAndAdvancesCursor(t *testing.T) {
	img := newMemImage(testGeom.MaxLBA())
	fill := bytes.Repeat([]byte{0x5A}, image.SectorSize)
	img.WriteSector(0, fill)
	d, s := newTestDrive(img)
	clearUnitReady(d, 0)
	s.data, s.eoi = nil, nil // drop the SendStatus traffic clearUnitReady generated

	d.Execute(Command{Kind: KindBuffRd, Unit: 0})
	if d.SeqState != SeqWaitSendData {
		t.Fatalf("got seq state %d, want WaitSendData", d.SeqState)
	}
	if d.Units[0].CurrentLBA != 1 {
		t.Fatalf("expected cursor advanced to 1, got %d", d.Units[0].CurrentLBA)
	}

	d.Execute(Command{Kind: KindSendData})
	if len(s.data) != 1 || !bytes.Equal(s.data[0], fill) {
		t.Fatalf("got sent data %+v", s.data)
	}
	if s.eoi[0] {
		t.Fatalf("SendData for buffered read must not set EOI")
	}
}

func TestFormatFillsWholeImage(t *testing.T) {
	img := newMemImage(testGeom.MaxLBA())
	d, _ := newTestDrive(img)
	clearUnitReady(d, 0)

	d.Execute(Command{Kind: KindFormat, Unit: 0, Override: 0x00, Filler: 0x33})

	buf := make([]byte, image.SectorSize)
	img.ReadSector(testGeom.MaxLBA()-1, buf)
	for _, b := range buf {
		if b != 0x33 {
			t.Fatalf("expected last sector filled with 0x33, got %#x", b)
		}
	}
	if d.Units[0].CurrentLBA != 0 {
		t.Fatalf("expected cursor reset to 0 after format")
	}
}

func TestFormatIgnoreFmtFillerUsesFF(t *testing.T) {
	img := newMemImage(testGeom.MaxLBA())
	fixed := model.Fixed{Name: "ign", Geometry: testGeom, Units: 1, IgnoreFmtFiller: true}
	d := NewDrive(fixed, []image.Image{img}, &fakeSender{})
	clearUnitReady(d, 0)

	d.Execute(Command{Kind: KindFormat, Unit: 0, Override: 0x80, Filler: 0x33})
	buf := make([]byte, image.SectorSize)
	img.ReadSector(0, buf)
	if buf[0] != 0xFF {
		t.Fatalf("expected ignore_fmt_filler model to fill with 0xff when override forces it, got %#x", buf[0])
	}
}

func TestFormatIgnoreFmtFillerSkipsWithoutOverride(t *testing.T) {
	img := newMemImage(testGeom.MaxLBA())
	img.WriteSector(0, bytes.Repeat([]byte{0x11}, image.SectorSize))
	fixed := model.Fixed{Name: "ign", Geometry: testGeom, Units: 1, IgnoreFmtFiller: true}
	d := NewDrive(fixed, []image.Image{img}, &fakeSender{})
	clearUnitReady(d, 0)

	d.Execute(Command{Kind: KindFormat, Unit: 0, Override: 0x00, Filler: 0x33})
	buf := make([]byte, image.SectorSize)
	img.ReadSector(0, buf)
	if buf[0] != 0x11 {
		t.Fatalf("expected image untouched without override bit, got %#x", buf[0])
	}
}

func TestDSJStartsAtTwoThenSettles(t *testing.T) {
	d, s := newTestDrive(newMemImage(testGeom.MaxLBA()))
	if d.DSJ != 2 {
		t.Fatalf("expected initial DSJ=2, got %d", d.DSJ)
	}
	d.Execute(Command{Kind: KindDSJ})
	if len(s.data) != 1 || s.data[0][0] != 2 {
		t.Fatalf("expected first DSJ report to be 2, got %+v", s.data)
	}
	if d.DSJ != 0 {
		t.Fatalf("expected DSJ to settle to 0 after first report, got %d", d.DSJ)
	}
}

func TestAmigoClearResetsEverything(t *testing.T) {
	d, _ := newTestDrive(newMemImage(testGeom.MaxLBA()))
	clearUnitReady(d, 0)
	d.Execute(Command{Kind: KindSeek, Unit: 0, CHS: chs.New(200, 0, 0)}) // sets A, C, Attention

	d.Execute(Command{Kind: KindAmigoClear})

	u := d.Units[0]
	if u.A || u.C || u.F {
		t.Fatalf("expected unit bits cleared after AmigoClear, got A=%v C=%v F=%v", u.A, u.C, u.F)
	}
	if u.CurrentLBA != 0 {
		t.Fatalf("expected cursor reset to 0, got %d", u.CurrentLBA)
	}
	if d.CurrentUnit != 0 || d.SeqState != SeqIdle || d.Stat1 != 0 || d.DSJ != 0 {
		t.Fatalf("expected drive state fully reset, got unit=%d seq=%d stat1=%#x dsj=%d",
			d.CurrentUnit, d.SeqState, d.Stat1, d.DSJ)
	}
}

func TestAmigoClearRequiresIdle(t *testing.T) {
	d, _ := newTestDrive(newMemImage(testGeom.MaxLBA()))
	clearUnitReady(d, 0)
	d.Execute(Command{Kind: KindBuffWr, Unit: 0}) // leaves SeqWaitReceiveData

	d.Execute(Command{Kind: KindAmigoClear})
	if d.SeqState != SeqIdle {
		t.Fatalf("sequencing violation should still leave seq idle, got %d", d.SeqState)
	}
	if d.Stat1 != ErrIO {
		t.Fatalf("expected a sequencing-error IO code, got %#x", d.Stat1)
	}
}

func TestUnkTalkIsANoOp(t *testing.T) {
	d, s := newTestDrive(newMemImage(testGeom.MaxLBA()))
	clearUnitReady(d, 0)
	s.data, s.eoi = nil, nil // drop the DSJ and SendStatus traffic clearUnitReady generated
	stat1, dsj, seq := d.Stat1, d.DSJ, d.SeqState

	d.Execute(Command{Kind: KindUnkTalk, SA: 0x1F})

	if len(s.data) != 0 {
		t.Fatalf("expected UnkTalk to send nothing, got %+v", s.data)
	}
	if d.Stat1 != stat1 || d.DSJ != dsj || d.SeqState != seq {
		t.Fatalf("expected UnkTalk to leave drive state untouched")
	}
}

func TestUnkListenSetsIOError(t *testing.T) {
	d, _ := newTestDrive(newMemImage(testGeom.MaxLBA()))
	d.Execute(Command{Kind: KindUnkListen, SA: 0x1E})
	if d.Stat1 != ErrIO {
		t.Fatalf("got Stat1=%#x, want ErrIO", d.Stat1)
	}
}

func TestIdentifySendsModelBytes(t *testing.T) {
	d, s := newTestDrive(newMemImage(testGeom.MaxLBA()))
	d.Execute(Command{Kind: KindIdentify})
	if len(s.data) != 1 || !bytes.Equal(s.data[0], []byte{0x00, 0x81}) {
		t.Fatalf("got %+v", s.data)
	}
}
