package at

// Vendor diagnostic payloads. They are opaque to the engine and must be
// reproduced byte for byte.
var (
	CmdDeviceInfo   = Cmd("AT+DEVCONINFO")
	CmdVersion      = Cmd("AT+VERSNAME=3,2,3")
	CmdChipset      = Cmd("AT+VERSNAME=1,3,0")
	CmdSIMLock      = Cmd("AT+SVCIFPGM=1,4")
	CmdCarrierID    = Cmd("AT+RFBYCODE=1,1,0")
	CmdDownloadInfo = Cmd("DVIF")

	CmdWatchdogOff = Cmd("AT+SWATD=0")
	CmdWatchdogOn  = Cmd("AT+SWATD=1")
	CmdActivate    = Cmd("AT+ACTIVATE=0,0,0")
	CmdFRPStatus   = Cmd("AT+REACTIVE=1,0,0").WithTerminator(CR)

	CmdRestart      = Cmd("AT+CFUN=1,1")
	CmdDownloadMode = Cmd("AT+SUDDLMOD=0,0")

	CmdKeyString   = Cmd("AT+KSTRINGB=0,3")
	CmdDumpControl = Cmd("AT+DUMPCTRL=1,0")
	CmdDebugLevel  = Cmd("AT+DEBUGLVC=0,5")
	CmdParallel    = Cmd("AT+PARALLEL=2,0,00000")
)

// Preconfigure returns the carrier preconfiguration command for the given
// sales code (for example "VZW" or "TMB").
func Preconfigure(carrier string) Command {
	return Cmd("AT+PRECONFG=2," + carrier)
}
