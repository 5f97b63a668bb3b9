package transport

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/aortez/cellsim-server/internal/cellworld"
)

// EncodeSnapshot serializes a WorldData into the self-delimited binary
// wire format: a fixed-order positional encoding so clients decode by
// field position rather than a schema negotiation.
func EncodeSnapshot(d *cellworld.WorldData) ([]byte, error) {
	var buf bytes.Buffer

	writeUint32(&buf, uint32(d.Width))
	writeUint32(&buf, uint32(d.Height))
	writeUint64(&buf, d.Timestep)
	writeString(&buf, d.ScenarioID)

	writeUint16(&buf, uint16(len(d.ScenarioConfig)))
	for k, v := range d.ScenarioConfig {
		writeString(&buf, k)
		writeFloat64(&buf, v)
	}

	buf.WriteByte(byte(d.SelectedMaterial))
	writeFloat64(&buf, d.TotalMass)
	writeFloat64(&buf, d.RemovedMass)
	writeFloat64(&buf, d.FPSServer)

	writeUint32(&buf, uint32(len(d.Cells)))
	for _, c := range d.Cells {
		buf.WriteByte(byte(c.Material))
		writeFloat64(&buf, c.Fill)
		writeFloat64(&buf, c.ComX)
		writeFloat64(&buf, c.ComY)
		writeFloat64(&buf, c.VelX)
		writeFloat64(&buf, c.VelY)
		writeFloat64(&buf, c.Pressure)
	}

	return buf.Bytes(), nil
}

// DecodeSnapshot parses the inverse of EncodeSnapshot. Each decoded
// CellData carries both the typed Material and its MaterialTag string.
func DecodeSnapshot(b []byte) (*cellworld.WorldData, error) {
	r := bytes.NewReader(b)

	width, err := readUint32(r)
	if err != nil {
		return nil, fmt.Errorf("transport: decode width: %w", err)
	}
	height, err := readUint32(r)
	if err != nil {
		return nil, fmt.Errorf("transport: decode height: %w", err)
	}
	timestep, err := readUint64(r)
	if err != nil {
		return nil, fmt.Errorf("transport: decode timestep: %w", err)
	}
	scenarioID, err := readString(r)
	if err != nil {
		return nil, fmt.Errorf("transport: decode scenario_id: %w", err)
	}

	configLen, err := readUint16(r)
	if err != nil {
		return nil, fmt.Errorf("transport: decode scenario_config length: %w", err)
	}
	config := make(map[string]float64, configLen)
	for i := uint16(0); i < configLen; i++ {
		k, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("transport: decode scenario_config key: %w", err)
		}
		v, err := readFloat64(r)
		if err != nil {
			return nil, fmt.Errorf("transport: decode scenario_config value: %w", err)
		}
		config[k] = v
	}

	matByte, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("transport: decode selected_material: %w", err)
	}
	totalMass, err := readFloat64(r)
	if err != nil {
		return nil, fmt.Errorf("transport: decode total_mass: %w", err)
	}
	removedMass, err := readFloat64(r)
	if err != nil {
		return nil, fmt.Errorf("transport: decode removed_mass: %w", err)
	}
	fps, err := readFloat64(r)
	if err != nil {
		return nil, fmt.Errorf("transport: decode fps_server: %w", err)
	}

	cellCount, err := readUint32(r)
	if err != nil {
		return nil, fmt.Errorf("transport: decode cell count: %w", err)
	}
	cells := make([]cellworld.CellData, cellCount)
	for i := range cells {
		matB, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("transport: decode cell %d material: %w", i, err)
		}
		fill, err := readFloat64(r)
		if err != nil {
			return nil, fmt.Errorf("transport: decode cell %d fill: %w", i, err)
		}
		comX, err := readFloat64(r)
		if err != nil {
			return nil, err
		}
		comY, err := readFloat64(r)
		if err != nil {
			return nil, err
		}
		velX, err := readFloat64(r)
		if err != nil {
			return nil, err
		}
		velY, err := readFloat64(r)
		if err != nil {
			return nil, err
		}
		pressure, err := readFloat64(r)
		if err != nil {
			return nil, err
		}
		mat := cellworld.Material(matB)
		cells[i] = cellworld.CellData{
			Material:    mat,
			MaterialTag: mat.Tag(),
			Fill:        fill,
			ComX:        comX,
			ComY:        comY,
			VelX:        velX,
			VelY:        velY,
			Pressure:    pressure,
		}
	}

	return &cellworld.WorldData{
		Width:            int(width),
		Height:           int(height),
		Timestep:         timestep,
		ScenarioID:       scenarioID,
		ScenarioConfig:   config,
		SelectedMaterial: cellworld.Material(matByte),
		TotalMass:        totalMass,
		RemovedMass:      removedMass,
		FPSServer:        fps,
		Cells:            cells,
	}, nil
}

func writeUint16(buf *bytes.Buffer, v uint16) { _ = binary.Write(buf, binary.BigEndian, v) }
func writeUint32(buf *bytes.Buffer, v uint32) { _ = binary.Write(buf, binary.BigEndian, v) }
func writeUint64(buf *bytes.Buffer, v uint64) { _ = binary.Write(buf, binary.BigEndian, v) }
func writeFloat64(buf *bytes.Buffer, v float64) { _ = binary.Write(buf, binary.BigEndian, v) }

func writeString(buf *bytes.Buffer, s string) {
	writeUint16(buf, uint16(len(s)))
	buf.WriteString(s)
}

func readUint16(r *bytes.Reader) (uint16, error) {
	var v uint16
	err := binary.Read(r, binary.BigEndian, &v)
	return v, err
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var v uint32
	err := binary.Read(r, binary.BigEndian, &v)
	return v, err
}

func readUint64(r *bytes.Reader) (uint64, error) {
	var v uint64
	err := binary.Read(r, binary.BigEndian, &v)
	return v, err
}

func readFloat64(r *bytes.Reader) (float64, error) {
	var v float64
	err := binary.Read(r, binary.BigEndian, &v)
	return v, err
}

func readString(r *bytes.Reader) (string, error) {
	n, err := readUint16(r)
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := r.Read(b); err != nil {
		return "", err
	}
	return string(b), nil
}
