package radio

import (
	"fmt"

	"fmreceiver/rds"
)

// Status is the first byte of every response.
type Status struct {
	TuneComplete  bool // STCINT
	RDSPending    bool // RDSINT
	SignalPending bool // RSQINT
	Error         bool // ERR
	ClearToSend   bool // CTS
}

func newStatus(v Values) Status {
	return Status{
		TuneComplete:  v.flag("STCINT"),
		RDSPending:    v.flag("RDSINT"),
		SignalPending: v.flag("RSQINT"),
		Error:         v.flag("ERR"),
		ClearToSend:   v.flag("CTS"),
	}
}

var statusLayout = statusOnly()

func decodeStatus(b byte) Status {
	v, _ := statusLayout.Unpack([]byte{b})
	return newStatus(v)
}

// TuneStatus is the answer to FM_TUNE_STATUS and AM_TUNE_STATUS.
type TuneStatus struct {
	Status
	Valid      bool
	AFCRail    bool
	BandLimit  bool
	Frequency  uint16
	RSSI       uint8
	SNR        uint8
	Multipath  uint8 // FM only
	AntennaCap uint16
}

func newTuneStatus(opcode byte, v Values) TuneStatus {
	ts := TuneStatus{
		Status:    newStatus(v),
		Valid:     v.flag("VALID"),
		AFCRail:   v.flag("AFCRL"),
		BandLimit: v.flag("BLTF"),
		Frequency: join16(v["FREQH"], v["FREQL"]),
		RSSI:      v["RSSI"],
		SNR:       v["SNR"],
	}
	if opcode == CMD_FM_TUNE_STATUS {
		ts.Multipath = v["MULT"]
		ts.AntennaCap = uint16(v["ANTCAP"])
	} else {
		ts.AntennaCap = join16(v["ANTCAPH"], v["ANTCAPL"])
	}
	return ts
}

// SignalQuality is a snapshot of FM_RSQ_STATUS or AM_RSQ_STATUS. It is
// always replaced as a whole.
type SignalQuality struct {
	Status
	RSSILow         bool
	RSSIHigh        bool
	SNRLow          bool
	SNRHigh         bool
	MultipathLow    bool
	MultipathHigh   bool
	BlendInterrupt  bool
	Valid           bool
	AFCRail         bool
	SoftMute        bool
	StereoBlend     uint8 // percent, 100 is full stereo
	Pilot           bool
	RSSI            uint8 // dBµV
	SNR             uint8 // dB
	Multipath       uint8
	FrequencyOffset int8 // kHz
}

func newSignalQuality(v Values) SignalQuality {
	return SignalQuality{
		Status:          newStatus(v),
		RSSILow:         v.flag("RSSILINT"),
		RSSIHigh:        v.flag("RSSIHINT"),
		SNRLow:          v.flag("SNRLINT"),
		SNRHigh:         v.flag("SNRHINT"),
		MultipathLow:    v.flag("MULTLINT"),
		MultipathHigh:   v.flag("MULTHINT"),
		BlendInterrupt:  v.flag("BLENDINT"),
		Valid:           v.flag("VALID"),
		AFCRail:         v.flag("AFCRL"),
		SoftMute:        v.flag("SMUTE"),
		StereoBlend:     v["STBLEND"],
		Pilot:           v.flag("PILOT"),
		RSSI:            v["RSSI"],
		SNR:             v["SNR"],
		Multipath:       v["MULT"],
		FrequencyOffset: int8(v["FREQOFF"]),
	}
}

// AGCStatus is the answer to FM_AGC_STATUS and AM_AGC_STATUS.
type AGCStatus struct {
	Enabled   bool
	GainIndex uint8
}

func newAGCStatus(v Values) AGCStatus {
	return AGCStatus{Enabled: !v.flag("AGCDIS"), GainIndex: v["AGCIDX"]}
}

// FirmwareInfo is the answer to GET_REV.
type FirmwareInfo struct {
	PartNumber     uint8
	FirmwareMajor  byte
	FirmwareMinor  byte
	PatchID        uint16
	ComponentMajor byte
	ComponentMinor byte
	ChipRevision   byte
}

func (f FirmwareInfo) String() string {
	return fmt.Sprintf("Si47%02d fw %c.%c patch 0x%04x cmp %c.%c rev %c",
		f.PartNumber, f.FirmwareMajor, f.FirmwareMinor, f.PatchID,
		f.ComponentMajor, f.ComponentMinor, f.ChipRevision)
}

func newFirmwareInfo(v Values) FirmwareInfo {
	return FirmwareInfo{
		PartNumber:     v["PN"],
		FirmwareMajor:  v["FWMAJOR"],
		FirmwareMinor:  v["FWMINOR"],
		PatchID:        join16(v["PATCHH"], v["PATCHL"]),
		ComponentMajor: v["CMPMAJOR"],
		ComponentMinor: v["CMPMINOR"],
		ChipRevision:   v["CHIPREV"],
	}
}

// LibraryID is the answer to a POWER_UP query, used to check a patch
// matches the chip.
type LibraryID struct {
	PartNumber    uint8
	FirmwareMajor byte
	FirmwareMinor byte
	ChipRevision  byte
	LibraryID     uint8
}

func newLibraryID(v Values) LibraryID {
	return LibraryID{
		PartNumber:    v["PN"],
		FirmwareMajor: v["FWMAJOR"],
		FirmwareMinor: v["FWMINOR"],
		ChipRevision:  v["CHIPREV"],
		LibraryID:     v["LIBRARYID"],
	}
}

// RDSStatus is the answer to FM_RDS_STATUS.
type RDSStatus struct {
	Status
	Received  bool // RDSRECV, a group was taken out of the FIFO
	SyncLost  bool
	SyncFound bool
	NewBlockA bool
	NewBlockB bool
	Sync      bool
	GroupLost bool
	FIFOUsed  uint8
	Group     rds.Group
}

func newRDSStatus(v Values) RDSStatus {
	return RDSStatus{
		Status:    newStatus(v),
		Received:  v.flag("RDSRECV"),
		SyncLost:  v.flag("RDSSYNCLOST"),
		SyncFound: v.flag("RDSSYNCFOUND"),
		NewBlockA: v.flag("RDSNEWBLOCKA"),
		NewBlockB: v.flag("RDSNEWBLOCKB"),
		Sync:      v.flag("RDSSYNC"),
		GroupLost: v.flag("GRPLOST"),
		FIFOUsed:  v["RDSFIFOUSED"],
		Group: rds.Group{
			Blocks: [4]uint16{
				join16(v["BLOCKAH"], v["BLOCKAL"]),
				join16(v["BLOCKBH"], v["BLOCKBL"]),
				join16(v["BLOCKCH"], v["BLOCKCL"]),
				join16(v["BLOCKDH"], v["BLOCKDL"]),
			},
			Grades: [4]rds.Grade{
				rds.Grade(v["BLEA"]),
				rds.Grade(v["BLEB"]),
				rds.Grade(v["BLEC"]),
				rds.Grade(v["BLED"]),
			},
		},
	}
}
