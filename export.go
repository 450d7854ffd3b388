package sdc

import (
	"fmt"
	"os"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// ExportConfig configures the state history streaming.
type ExportConfig struct {
	Filename  string
	AsCSV     bool
	Timestamp bool
}

// IsUseless returns whether this config doesn't actually do anything.
func (c ExportConfig) IsUseless() bool {
	return !c.AsCSV
}

// NameOf returns the name of the file to create.
func (c ExportConfig) NameOf() string {
	name := c.Filename
	if c.Timestamp {
		name += time.Now().UTC().Format("-2006-01-02-15.04.05")
	}
	return name + ".csv"
}

func createCSVFile(conf ExportConfig, header string, stateDT time.Time) *os.File {
	f, err := os.Create(fmt.Sprintf("%s/prop-%s", sdcConfig().outputDir, conf.NameOf()))
	if err != nil {
		panic(err)
	}
	f.WriteString(fmt.Sprintf(`# Creation date (UTC): %s
# Simulation time start (UTC): %s
%s`, time.Now().UTC(), stateDT.UTC(), header))
	return f
}

// StreamOrbitStates streams the orbit history channel to a CSV file whose
// rows are the time, the Julian day, the classical elements (angles in
// degrees) and the conserved diagnostics. External plotting collaborators
// consume this file; no data flows back.
func StreamOrbitStates(conf ExportConfig, stateChan <-chan OrbitState) {
	var f *os.File
	for state := range stateChan {
		if f == nil {
			f = createCSVFile(conf, "time,jd,a,e,i,Omega,omega,nu,energy,hnorm,class", state.DT)
			defer f.Close()
		}
		a, e, i, Ω, ω, ν, _, _, _ := state.Orbit.Elements()
		row := fmt.Sprintf("\n%s,%.6f,%.6f,%.9f,%.6f,%.6f,%.6f,%.6f,%.9f,%.6f,%s",
			state.DT.UTC().Format("2006-01-02 15:04:05"), julian.TimeToJD(state.DT),
			a, e, Rad2deg(i), Rad2deg(Ω), Rad2deg(ω), Rad2deg(ν),
			state.Orbit.Energyξ(), state.Orbit.HNorm(), state.Orbit.Class())
		if _, err := f.WriteString(row); err != nil {
			panic(err)
		}
	}
	if f != nil {
		f.WriteString("\n")
	}
}

// StreamAttitudeStates streams the attitude history channel to a CSV file:
// quaternion, body rates, angular momentum magnitude and kinetic energy.
func StreamAttitudeStates(conf ExportConfig, stateChan <-chan AttitudeState) {
	var f *os.File
	for state := range stateChan {
		if f == nil {
			f = createCSVFile(conf, "time,jd,q0,q1,q2,q3,w1,w2,w3,hnorm,energy", state.DT)
			defer f.Close()
		}
		q := state.Attitude.Q
		ω := state.Attitude.Velocity
		row := fmt.Sprintf("\n%s,%.6f,%.9f,%.9f,%.9f,%.9f,%.9f,%.9f,%.9f,%.9f,%.9f",
			state.DT.UTC().Format("2006-01-02 15:04:05"), julian.TimeToJD(state.DT),
			q.Q0, q.Q1, q.Q2, q.Q3, ω[0], ω[1], ω[2], state.HNorm, state.Energy)
		if _, err := f.WriteString(row); err != nil {
			panic(err)
		}
	}
	if f != nil {
		f.WriteString("\n")
	}
}
