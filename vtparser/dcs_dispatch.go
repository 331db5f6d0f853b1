package vtparser

// hookDCS begins passthrough capture for a DCS sequence whose introducer
// (marker/intermediates in d.dcsCollect, parameters in d.params) has just
// been fully parsed and whose final byte selects the sub-protocol.
func (d *Decoder) hookDCS(final byte) {
	d.dcsActive = true
	d.dcsFinal = final
	d.dcsBuf = d.dcsBuf[:0]
}

// unhookDCS dispatches the completed DCS sequence to the Handler method
// matching its introducer and resets capture state. Recognized forms:
//
//	DCS $ q Pt ST          DECRQSS: report the setting named by Pt
//	DCS Pid ! ~ ... ST     DECRQCRA: report a rectangular area checksum
//	DCS Pa;Pb;Ph q data ST Sixel graphics data
//
// Any other DCS sequence is absorbed without dispatch, matching this
// engine's tolerance for sub-protocols it does not implement.
func (d *Decoder) unhookDCS() {
	defer func() {
		d.dcsActive = false
		d.dcsBuf = d.dcsBuf[:0]
	}()
	if !d.dcsActive {
		return
	}

	marker := string(d.dcsCollect)
	switch {
	case marker == "$" && d.dcsFinal == 'q':
		d.handler.ReportSettings(string(d.dcsBuf))
	case marker == "!" && d.dcsFinal == '~':
		params := d.intParams()
		id := intParamOr(params, 0, 0)
		top := intParamOr(params, 1, 0)
		left := intParamOr(params, 2, 0)
		bottom := intParamOr(params, 3, 0)
		right := intParamOr(params, 4, 0)
		d.handler.ReportChecksum(id, top, left, bottom, right)
	case marker == "" && d.dcsFinal == 'q':
		sixelParams := make([][]uint16, len(d.params))
		copy(sixelParams, d.params)
		d.handler.SixelReceived(sixelParams, append([]byte(nil), d.dcsBuf...))
	}
}
