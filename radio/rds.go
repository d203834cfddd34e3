package radio

import (
	"fmreceiver/rds"

	gords "github.com/mschoch/go-rds"
)

// RDSPoll is the outcome of one PollRDS.
type RDSPoll struct {
	// Received is false when the FIFO had no new group.
	Received bool
	Type     rds.GroupType
	Sync     bool
	FIFOUsed uint8
}

// RDSIntSource selects what raises the RDS interrupt.
type RDSIntSource struct {
	Received  bool
	SyncLost  bool
	SyncFound bool
	NewBlockA bool
	NewBlockB bool
}

// RDSInit enables RDS, accepting every block with at most 5 corrected
// errors, and raises the interrupt on every received group.
func (s *Si4735Driver) RDSInit() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return s.rdsInit()
}

func (s *Si4735Driver) rdsInit() error {
	if err := s.requireMode("RDS", ModeFM); err != nil {
		return err
	}
	if err := s.setRDSIntSource(RDSIntSource{Received: true}); err != nil {
		return err
	}
	if err := s.setProperty(PROP_FM_RDS_INT_FIFO_COUNT, 1); err != nil {
		return err
	}
	grade := uint8(rds.GradeCorrectedHigh)
	if err := s.setRDSConfig(true, grade, grade, grade, grade); err != nil {
		return err
	}
	s.resetRDS()

	if s.debugMode {
		s.debugLog("RDS on!\n")
	}
	return nil
}

// SetRDSConfig enables or disables RDS. The thresholds are the highest
// error grade (0..3) a block may have to be delivered.
func (s *Si4735Driver) SetRDSConfig(enable bool, blockA, blockB, blockC, blockD uint8) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := s.requireMode("RDS", ModeFM); err != nil {
		return err
	}
	return s.setRDSConfig(enable, blockA, blockB, blockC, blockD)
}

func (s *Si4735Driver) setRDSConfig(enable bool, blockA, blockB, blockC, blockD uint8) error {
	return s.setBitProperty(PROP_FM_RDS_CONFIG, Values{
		"RDSEN":  boolBit(enable),
		"BLETHA": blockA,
		"BLETHB": blockB,
		"BLETHC": blockC,
		"BLETHD": blockD,
	})
}

// SetRDSIntSource configures the RDS interrupt sources.
func (s *Si4735Driver) SetRDSIntSource(src RDSIntSource) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := s.requireMode("RDS", ModeFM); err != nil {
		return err
	}
	return s.setRDSIntSource(src)
}

func (s *Si4735Driver) setRDSIntSource(src RDSIntSource) error {
	return s.setBitProperty(PROP_FM_RDS_INT_SOURCE, Values{
		"RDSRECV":      boolBit(src.Received),
		"RDSSYNCLOST":  boolBit(src.SyncLost),
		"RDSSYNCFOUND": boolBit(src.SyncFound),
		"RDSNEWBLOCKA": boolBit(src.NewBlockA),
		"RDSNEWBLOCKB": boolBit(src.NewBlockB),
	})
}

// PollRDS takes the oldest group out of the RDS FIFO and merges it.
// No new group is not an error. A group dropped for an uncorrectable
// block returns ErrUncorrectableBlock with Received set; it is safe to
// keep polling.
func (s *Si4735Driver) PollRDS() (RDSPoll, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := s.requireMode("RDS", ModeFM); err != nil {
		return RDSPoll{}, err
	}
	cmd, err := Encode(CMD_FM_RDS_STATUS, Values{"INTACK": 1})
	if err != nil {
		return RDSPoll{}, err
	}
	v, err := s.query(cmd)
	if err != nil {
		return RDSPoll{}, err
	}
	st := newRDSStatus(v)

	poll := RDSPoll{Received: st.Received, Sync: st.Sync, FIFOUsed: st.FIFOUsed}
	if !st.Received {
		return poll, nil
	}

	d, err := s.rds.Ingest(st.Group)
	poll.Type = d.Type
	if err != nil {
		if s.debugMode {
			s.debugLog("RDS group dropped: %v\n", err)
		}
		return poll, err
	}

	if s.rawRDS != nil {
		b := st.Group.Blocks
		s.rawRDS.Update(b[rds.BlockA], b[rds.BlockB], b[rds.BlockC], b[rds.BlockD])
		s.debugLog("RDS %s: %v\n", d.Type, s.rawRDS)
	}
	return poll, nil
}

// RDS returns the assembled station name, radio text and clock.
func (s *Si4735Driver) RDS() rds.Snapshot {
	return s.rds.Snapshot()
}

// RDSStats returns the group counters of the assembler.
func (s *Si4735Driver) RDSStats() rds.Stats {
	return s.rds.Stats()
}

// ResetRDS drops everything assembled so far.
func (s *Si4735Driver) ResetRDS() {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.resetRDS()
}

func (s *Si4735Driver) resetRDS() {
	s.rds.Reset()
	if s.rawRDS != nil {
		s.rawRDS = gords.NewRDSInfo()
	}
}
