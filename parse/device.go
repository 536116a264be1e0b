package parse

// Labels of the DEVCONINFO identity record, in output order.
const (
	LabelModel         = "Model"
	LabelSoftware      = "Software"
	LabelSalesCode     = "Sales Code"
	LabelSerial        = "SN"
	LabelIMEI          = "IMEI"
	LabelUID           = "UN"
	LabelSecurityPatch = "Security Patch"
)

// DeviceInfo is the identity record reported by AT+DEVCONINFO. It always
// holds the same fields in the same order; missing ones are Unknown.
type DeviceInfo []Field

// Get returns the value for label, or Unknown.
func (d DeviceInfo) Get(label string) string {
	for _, f := range d {
		if f.Label == label {
			return f.Value
		}
	}
	return Unknown
}

// ParseDeviceInfo extracts the identity fields from a DEVCONINFO response
// such as "MN(SM-G991U);BASE(...);VER(G991USQU5CVDB/...);PRD(VZW);SN(...)".
// The security patch is decoded from the software version.
func ParseDeviceInfo(text string) DeviceInfo {
	software := FirstSegment(text, "VER")

	patch := Unknown
	if p, ok := DecodePatch(software); ok {
		patch = p.String()
	}

	return DeviceInfo{
		{Label: LabelModel, Value: Value(text, "MN")},
		{Label: LabelSoftware, Value: software},
		{Label: LabelSalesCode, Value: Value(text, "PRD")},
		{Label: LabelSerial, Value: Value(text, "SN")},
		{Label: LabelIMEI, Value: Value(text, "IMEI")},
		{Label: LabelUID, Value: Value(text, "UN")},
		{Label: LabelSecurityPatch, Value: patch},
	}
}
