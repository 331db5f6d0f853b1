package vtparser

import (
	"bytes"
	"encoding/base64"
	"image/color"
	"strconv"
	"strings"
)

// dispatchOSC parses the accumulated OSC payload (d.oscBuf, not including
// the introducer or terminator) and dispatches it to the Handler. OSC
// payloads are ';'-separated with the first field selecting the command.
func (d *Decoder) dispatchOSC() {
	fields := splitOSC(d.oscBuf)
	if len(fields) == 0 {
		return
	}
	code, err := strconv.Atoi(string(fields[0]))
	if err != nil {
		return
	}

	switch code {
	case 0, 2:
		d.handler.SetTitle(string(oscJoin(fields[1:])))
	case 1:
		// icon name only; this engine has no separate icon-name sink
	case 4:
		d.dispatchSetColor(fields[1:])
	case 104:
		d.dispatchResetColor(fields[1:])
	case 7:
		d.handler.SetWorkingDirectory(string(oscJoin(fields[1:])))
	case 8:
		d.dispatchHyperlink(fields[1:])
	case 10, 11, 12, 13, 14, 17, 19:
		if len(fields) < 2 {
			return
		}
		d.handler.SetDynamicColor(string(fields[0]), 0, string(fields[1]))
	case 52:
		d.dispatchClipboard(fields[1:])
	case 133:
		d.dispatchShellIntegration(fields[1:])
	case 1337:
		d.dispatchITerm2(fields[1:])
	case 99:
		d.dispatchNotification(fields[1:])
	}
}

func splitOSC(buf []byte) [][]byte {
	return bytes.Split(buf, []byte{';'})
}

func oscJoin(fields [][]byte) []byte {
	return bytes.Join(fields, []byte{';'})
}

// dispatchSetColor handles OSC 4 ; index ; spec ( ; index ; spec )* — one
// or more index/color-spec pairs in a single sequence.
func (d *Decoder) dispatchSetColor(fields [][]byte) {
	for i := 0; i+1 < len(fields); i += 2 {
		idx, err := strconv.Atoi(string(fields[i]))
		if err != nil {
			continue
		}
		c, ok := parseColorSpec(string(fields[i+1]))
		if !ok {
			continue
		}
		d.handler.SetColor(idx, c)
	}
}

func (d *Decoder) dispatchResetColor(fields [][]byte) {
	if len(fields) == 0 {
		// OSC 104 with no argument resets the entire palette; signal with -1.
		d.handler.ResetColor(-1)
		return
	}
	for _, f := range fields {
		idx, err := strconv.Atoi(string(f))
		if err != nil {
			continue
		}
		d.handler.ResetColor(idx)
	}
}

// dispatchHyperlink handles OSC 8 ; params ; uri. params is a
// ':'-separated list of key=value pairs; only "id" is recognized.
func (d *Decoder) dispatchHyperlink(fields [][]byte) {
	if len(fields) < 2 {
		return
	}
	params := string(fields[0])
	uri := string(oscJoin(fields[1:]))
	if uri == "" {
		d.handler.SetHyperlink(nil)
		return
	}
	id := ""
	for _, kv := range bytes.Split([]byte(params), []byte{':'}) {
		if k, v, ok := bytes.Cut(kv, []byte{'='}); ok && string(k) == "id" {
			id = string(v)
		}
	}
	d.handler.SetHyperlink(&Hyperlink{ID: id, URI: uri})
}

// dispatchClipboard handles OSC 52 ; c ; base64-data. A payload of "?"
// requests a read via ClipboardLoad; anything else is base64-decoded and
// written via ClipboardStore.
func (d *Decoder) dispatchClipboard(fields [][]byte) {
	if len(fields) < 2 {
		return
	}
	clipboard := byte('c')
	if len(fields[0]) > 0 {
		clipboard = fields[0][0]
	}
	payload := string(fields[1])
	if payload == "?" {
		d.handler.ClipboardLoad(clipboard, "\x07")
		return
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return
	}
	d.handler.ClipboardStore(clipboard, data)
}

// dispatchShellIntegration handles OSC 133 ; A|B|C|D[;exit-code] prompt
// marks used by shell integration (FinalTerm/iTerm2/VSCode convention).
func (d *Decoder) dispatchShellIntegration(fields [][]byte) {
	if len(fields) == 0 {
		return
	}
	exitCode := -1
	if len(fields) >= 2 {
		if n, err := strconv.Atoi(string(fields[1])); err == nil {
			exitCode = n
		}
	}
	switch string(fields[0]) {
	case "A":
		d.handler.ShellIntegrationMark(PromptStart, exitCode)
	case "B":
		d.handler.ShellIntegrationMark(CommandStart, exitCode)
	case "C":
		d.handler.ShellIntegrationMark(CommandExecuted, exitCode)
	case "D":
		d.handler.ShellIntegrationMark(CommandFinished, exitCode)
	}
}

// dispatchITerm2 handles OSC 1337 ; key=value proprietary sequences. Only
// SetUserVar=NAME=BASE64_VALUE is recognized; other keys are ignored.
func (d *Decoder) dispatchITerm2(fields [][]byte) {
	payload := oscJoin(fields)
	key, rest, ok := bytes.Cut(payload, []byte{'='})
	if !ok || string(key) != "SetUserVar" {
		return
	}
	name, b64, ok := bytes.Cut(rest, []byte{'='})
	if !ok {
		return
	}
	value, err := base64.StdEncoding.DecodeString(string(b64))
	if err != nil {
		return
	}
	d.handler.SetUserVar(string(name), string(value))
}

// dispatchNotification handles OSC 99 ; metadata* desktop notifications
// (kitty/iTerm2 convention). Each field with a recognized key=value pair
// sets metadata; a field lacking an '=' or with an unrecognized key is
// treated as message body data.
func (d *Decoder) dispatchNotification(fields [][]byte) {
	n := NotificationPayload{Done: true, Urgency: 1}
	var dataFields [][]byte
	for _, f := range fields {
		key, val, ok := bytes.Cut(f, []byte{'='})
		if !ok {
			dataFields = append(dataFields, f)
			continue
		}
		switch string(key) {
		case "i":
			n.ID = string(val)
		case "d":
			n.Done = string(val) != "0"
		case "p":
			n.PayloadType = string(val)
		case "e":
			n.Encoding = string(val)
		case "a":
			n.Actions = append(n.Actions, strings.Split(string(val), ",")...)
			if strings.Contains(string(val), "close") {
				n.TrackClose = true
			}
		case "o":
			n.Occasion = string(val)
		case "u":
			if urgency, err := strconv.Atoi(string(val)); err == nil {
				n.Urgency = urgency
			}
		case "c":
			n.IconCacheID = string(val)
		case "n":
			n.AppName = string(val)
		case "t":
			n.Type = string(val)
		case "w":
			n.IconName = string(val)
		case "s":
			n.Sound = string(val)
		default:
			dataFields = append(dataFields, f)
		}
	}
	if len(dataFields) > 0 {
		payload := oscJoin(dataFields)
		if n.Encoding == "1" {
			if decoded, err := base64.StdEncoding.DecodeString(string(payload)); err == nil {
				n.Data = decoded
			}
		} else {
			n.Data = payload
		}
	}
	d.handler.NotificationReceived(n)
}

// parseColorSpec parses an X11-style "rgb:RR/GG/BB" or CSS-style "#RRGGBB"
// color specification, as used by OSC 4/10/11/12 payloads.
func parseColorSpec(spec string) (color.Color, bool) {
	if len(spec) > 0 && spec[0] == '#' {
		return parseHexColor(spec[1:])
	}
	if len(spec) > 4 && spec[:4] == "rgb:" {
		parts := bytes.Split([]byte(spec[4:]), []byte{'/'})
		if len(parts) != 3 {
			return nil, false
		}
		r, ok1 := parseHexComponent(string(parts[0]))
		g, ok2 := parseHexComponent(string(parts[1]))
		b, ok3 := parseHexComponent(string(parts[2]))
		if !ok1 || !ok2 || !ok3 {
			return nil, false
		}
		return color.RGBA{R: r, G: g, B: b, A: 0xff}, true
	}
	return parseHexColor(spec)
}

func parseHexColor(s string) (color.Color, bool) {
	if len(s) != 6 {
		return nil, false
	}
	r, ok1 := parseHexComponent(s[0:2])
	g, ok2 := parseHexComponent(s[2:4])
	b, ok3 := parseHexComponent(s[4:6])
	if !ok1 || !ok2 || !ok3 {
		return nil, false
	}
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, true
}

// parseHexComponent parses a 1-4 hex-digit color channel, scaling down to
// 8 bits the way X11 rgb: specifications (which allow 4-digit channels) do.
func parseHexComponent(s string) (uint8, bool) {
	if len(s) == 0 || len(s) > 4 {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, false
	}
	maxVal := uint64(1)<<(4*uint(len(s))) - 1
	return uint8(n * 255 / maxVal), true
}
