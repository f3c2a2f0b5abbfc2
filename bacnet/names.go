package bacnet

import (
	"fmt"
	"strconv"
	"strings"
)

var objectTypeNames = map[ObjectType]string{
	AnalogInput:           "analogInput",
	AnalogOutput:          "analogOutput",
	AnalogValue:           "analogValue",
	BinaryInput:           "binaryInput",
	BinaryOutput:          "binaryOutput",
	BinaryValue:           "binaryValue",
	Calendar:              "calendar",
	Command:               "command",
	BacnetDevice:          "device",
	EventEnrollment:       "eventEnrollment",
	File:                  "file",
	Group:                 "group",
	Loop:                  "loop",
	MultiStateInput:       "multiStateInput",
	MultiStateOutput:      "multiStateOutput",
	NotificationClass:     "notificationClass",
	Program:               "program",
	Schedule:              "schedule",
	Averaging:             "averaging",
	MultiStateValue:       "multiStateValue",
	Trendlog:              "trendLog",
	LifeSafetyPoint:       "lifeSafetyPoint",
	LifeSafetyZone:        "lifeSafetyZone",
	Accumulator:           "accumulator",
	PulseConverter:        "pulseConverter",
	EventLog:              "eventLog",
	GlobalGroup:           "globalGroup",
	TrendLogMultiple:      "trendLogMultiple",
	LoadControl:           "loadControl",
	StructuredView:        "structuredView",
	AccessDoor:            "accessDoor",
	Timer:                 "timer",
	AccessCredential:      "accessCredential",
	AccessPoint:           "accessPoint",
	AccessRights:          "accessRights",
	AccessUser:            "accessUser",
	AccessZone:            "accessZone",
	CredentialDataInput:   "credentialDataInput",
	NetworkSecurity:       "networkSecurity",
	BitstringValue:        "bitstringValue",
	CharacterstringValue:  "characterstringValue",
	DatePatternValue:      "datePatternValue",
	DateValue:             "dateValue",
	DatetimePatternValue:  "datetimePatternValue",
	DatetimeValue:         "datetimeValue",
	IntegerValue:          "integerValue",
	LargeAnalogValue:      "largeAnalogValue",
	OctetstringValue:      "octetstringValue",
	PositiveIntegerValue:  "positiveIntegerValue",
	TimePatternValue:      "timePatternValue",
	TimeValue:             "timeValue",
	NotificationForwarder: "notificationForwarder",
	AlertEnrollment:       "alertEnrollment",
	Channel:               "channel",
	LightingOutput:        "lightingOutput",
	BinaryLightingOutput:  "binaryLightingOutput",
	NetworkPort:           "networkPort",
}

// short names accepted on top of the canonical ones
var objectTypeAliases = map[string]ObjectType{
	"ai":  AnalogInput,
	"ao":  AnalogOutput,
	"av":  AnalogValue,
	"bi":  BinaryInput,
	"bo":  BinaryOutput,
	"bv":  BinaryValue,
	"dev": BacnetDevice,
	"msi": MultiStateInput,
	"mso": MultiStateOutput,
	"msv": MultiStateValue,
}

var objectTypesByKey = func() map[string]ObjectType {
	m := make(map[string]ObjectType, len(objectTypeNames)+len(objectTypeAliases))
	for t, name := range objectTypeNames {
		m[nameKey(name)] = t
	}
	for alias, t := range objectTypeAliases {
		m[alias] = t
	}
	return m
}()

func (o ObjectType) String() string {
	if name, ok := objectTypeNames[o]; ok {
		return name
	}
	return strconv.FormatUint(uint64(o), 10)
}

// nameKey folds camelCase, hyphenated and underscored spellings
// of the same identifier onto one key.
func nameKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "", "_", "").Replace(s)
}

//ParseObjectType accepts a name (analogInput, analog-input, ai) or a
//number
func ParseObjectType(s string) (ObjectType, error) {
	if n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 16); err == nil {
		if n > maxObjectType {
			return 0, fmt.Errorf("object type %d out of range", n)
		}
		return ObjectType(n), nil
	}
	if t, ok := objectTypesByKey[nameKey(s)]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("unknown object type %q", s)
}

//ParseObjectID parses "{objectType}:{instance}"
func ParseObjectID(s string) (ObjectID, error) {
	i := strings.LastIndex(s, ":")
	if i < 0 {
		return ObjectID{}, fmt.Errorf("object identifier %q: expected type:instance", s)
	}
	t, err := ParseObjectType(s[:i])
	if err != nil {
		return ObjectID{}, fmt.Errorf("object identifier %q: %w", s, err)
	}
	inst, err := strconv.ParseUint(strings.TrimSpace(s[i+1:]), 10, 32)
	if err != nil {
		return ObjectID{}, fmt.Errorf("object identifier %q: invalid instance: %w", s, err)
	}
	if inst > MaxInstance {
		return ObjectID{}, fmt.Errorf("object identifier %q: instance %d above %d", s, inst, MaxInstance)
	}
	return ObjectID{Type: t, Instance: ObjectInstance(inst)}, nil
}

//PropertyType is the numeric identifier of an object property
type PropertyType uint32

const (
	AckedTransitions              PropertyType = 0
	AckRequired                   PropertyType = 1
	Action                        PropertyType = 2
	ActionText                    PropertyType = 3
	ActiveText                    PropertyType = 4
	ActiveVtSessions              PropertyType = 5
	AlarmValue                    PropertyType = 6
	AlarmValues                   PropertyType = 7
	All                           PropertyType = 8
	AllWritesSuccessful           PropertyType = 9
	ApduSegmentTimeout            PropertyType = 10
	ApduTimeout                   PropertyType = 11
	ApplicationSoftwareVersion    PropertyType = 12
	Archive                       PropertyType = 13
	Bias                          PropertyType = 14
	ChangeOfStateCount            PropertyType = 15
	ChangeOfStateTime             PropertyType = 16
	NotificationClassProperty     PropertyType = 17
	ControlledVariableReference   PropertyType = 19
	ControlledVariableUnits       PropertyType = 20
	ControlledVariableValue       PropertyType = 21
	CovIncrement                  PropertyType = 22
	DateList                      PropertyType = 23
	DaylightSavingsStatus         PropertyType = 24
	Deadband                      PropertyType = 25
	DerivativeConstant            PropertyType = 26
	DerivativeConstantUnits       PropertyType = 27
	Description                   PropertyType = 28
	DescriptionOfHalt             PropertyType = 29
	DeviceAddressBinding          PropertyType = 30
	DeviceType                    PropertyType = 31
	EffectivePeriod               PropertyType = 32
	ElapsedActiveTime             PropertyType = 33
	ErrorLimit                    PropertyType = 34
	EventEnable                   PropertyType = 35
	EventState                    PropertyType = 36
	EventType                     PropertyType = 37
	ExceptionSchedule             PropertyType = 38
	FaultValues                   PropertyType = 39
	FeedbackValue                 PropertyType = 40
	FileAccessMethod              PropertyType = 41
	FileSize                      PropertyType = 42
	FileType                      PropertyType = 43
	FirmwareRevision              PropertyType = 44
	HighLimit                     PropertyType = 45
	InactiveText                  PropertyType = 46
	InProcess                     PropertyType = 47
	InstanceOf                    PropertyType = 48
	IntegralConstant              PropertyType = 49
	IntegralConstantUnits         PropertyType = 50
	LimitEnable                   PropertyType = 52
	ListOfGroupMembers            PropertyType = 53
	ListOfObjectPropertyRefs      PropertyType = 54
	LocalDate                     PropertyType = 56
	LocalTime                     PropertyType = 57
	Location                      PropertyType = 58
	LowLimit                      PropertyType = 59
	ManipulatedVariableReference  PropertyType = 60
	MaximumOutput                 PropertyType = 61
	MaxApduLengthAccepted         PropertyType = 62
	MaxInfoFrames                 PropertyType = 63
	MaxMaster                     PropertyType = 64
	MaxPresValue                  PropertyType = 65
	MinimumOffTime                PropertyType = 66
	MinimumOnTime                 PropertyType = 67
	MinimumOutput                 PropertyType = 68
	MinPresValue                  PropertyType = 69
	ModelName                     PropertyType = 70
	ModificationDate              PropertyType = 71
	NotifyType                    PropertyType = 72
	NumberOfApduRetries           PropertyType = 73
	NumberOfStates                PropertyType = 74
	ObjectIdentifier              PropertyType = 75
	ObjectList                    PropertyType = 76
	ObjectName                    PropertyType = 77
	ObjectPropertyReference       PropertyType = 78
	ObjectTypeProperty            PropertyType = 79
	Optional                      PropertyType = 80
	OutOfService                  PropertyType = 81
	OutputUnits                   PropertyType = 82
	EventParameters               PropertyType = 83
	Polarity                      PropertyType = 84
	PresentValue                  PropertyType = 85
	Priority                      PropertyType = 86
	PriorityArray                 PropertyType = 87
	PriorityForWriting            PropertyType = 88
	ProcessIdentifier             PropertyType = 89
	ProgramChange                 PropertyType = 90
	ProgramLocation               PropertyType = 91
	ProgramState                  PropertyType = 92
	ProportionalConstant          PropertyType = 93
	ProportionalConstantUnits     PropertyType = 94
	ProtocolObjectTypesSupported  PropertyType = 96
	ProtocolServicesSupported     PropertyType = 97
	ProtocolVersion               PropertyType = 98
	ReadOnly                      PropertyType = 99
	ReasonForHalt                 PropertyType = 100
	RecipientList                 PropertyType = 102
	Reliability                   PropertyType = 103
	RelinquishDefault             PropertyType = 104
	Required                      PropertyType = 105
	Resolution                    PropertyType = 106
	SegmentationSupported         PropertyType = 107
	Setpoint                      PropertyType = 108
	SetpointReference             PropertyType = 109
	StateText                     PropertyType = 110
	StatusFlags                   PropertyType = 111
	SystemStatus                  PropertyType = 112
	TimeDelay                     PropertyType = 113
	TimeOfActiveTimeReset         PropertyType = 114
	TimeOfStateCountReset         PropertyType = 115
	TimeSynchronizationRecipients PropertyType = 116
	Units                         PropertyType = 117
	UpdateInterval                PropertyType = 118
	UtcOffset                     PropertyType = 119
	VendorIdentifier              PropertyType = 120
	VendorName                    PropertyType = 121
	VtClassesSupported            PropertyType = 122
	WeeklySchedule                PropertyType = 123
	AttemptedSamples              PropertyType = 124
	AverageValue                  PropertyType = 125
	BufferSize                    PropertyType = 126
	ClientCovIncrement            PropertyType = 127
	CovResubscriptionInterval     PropertyType = 128
	EventTimeStamps               PropertyType = 130
	LogBuffer                     PropertyType = 131
	LogDeviceObjectProperty       PropertyType = 132
	Enable                        PropertyType = 133
	LogInterval                   PropertyType = 134
	MaximumValue                  PropertyType = 135
	MinimumValue                  PropertyType = 136
	NotificationThreshold         PropertyType = 137
	ProtocolRevision              PropertyType = 139
	RecordsSinceNotification      PropertyType = 140
	RecordCount                   PropertyType = 141
	StartTime                     PropertyType = 142
	StopTime                      PropertyType = 143
	StopWhenFull                  PropertyType = 144
	TotalRecordCount              PropertyType = 145
	ValidSamples                  PropertyType = 146
	WindowInterval                PropertyType = 147
	WindowSamples                 PropertyType = 148
	MaximumValueTimestamp         PropertyType = 149
	MinimumValueTimestamp         PropertyType = 150
	VarianceValue                 PropertyType = 151
	ActiveCovSubscriptions        PropertyType = 152
	BackupFailureTimeout          PropertyType = 153
	ConfigurationFiles            PropertyType = 154
	DatabaseRevision              PropertyType = 155
	DirectReading                 PropertyType = 156
	LastRestoreTime               PropertyType = 157
	MaintenanceRequired           PropertyType = 158
	MemberOf                      PropertyType = 159
	Mode                          PropertyType = 160
	OperationExpected             PropertyType = 161
	Setting                       PropertyType = 162
	Silenced                      PropertyType = 163
	TrackingValue                 PropertyType = 164
	ZoneMembers                   PropertyType = 165
	LifeSafetyAlarmValues         PropertyType = 166
	MaxSegmentsAccepted           PropertyType = 167
	ProfileName                   PropertyType = 168
	ScheduleDefault               PropertyType = 174
	StructuredObjectList          PropertyType = 209
	PropertyList                  PropertyType = 371
)

var propertyTypeNames = map[PropertyType]string{
	AckedTransitions:              "ackedTransitions",
	AckRequired:                   "ackRequired",
	Action:                        "action",
	ActionText:                    "actionText",
	ActiveText:                    "activeText",
	ActiveVtSessions:              "activeVtSessions",
	AlarmValue:                    "alarmValue",
	AlarmValues:                   "alarmValues",
	All:                           "all",
	AllWritesSuccessful:           "allWritesSuccessful",
	ApduSegmentTimeout:            "apduSegmentTimeout",
	ApduTimeout:                   "apduTimeout",
	ApplicationSoftwareVersion:    "applicationSoftwareVersion",
	Archive:                       "archive",
	Bias:                          "bias",
	ChangeOfStateCount:            "changeOfStateCount",
	ChangeOfStateTime:             "changeOfStateTime",
	NotificationClassProperty:     "notificationClass",
	ControlledVariableReference:   "controlledVariableReference",
	ControlledVariableUnits:       "controlledVariableUnits",
	ControlledVariableValue:       "controlledVariableValue",
	CovIncrement:                  "covIncrement",
	DateList:                      "dateList",
	DaylightSavingsStatus:         "daylightSavingsStatus",
	Deadband:                      "deadband",
	DerivativeConstant:            "derivativeConstant",
	DerivativeConstantUnits:       "derivativeConstantUnits",
	Description:                   "description",
	DescriptionOfHalt:             "descriptionOfHalt",
	DeviceAddressBinding:          "deviceAddressBinding",
	DeviceType:                    "deviceType",
	EffectivePeriod:               "effectivePeriod",
	ElapsedActiveTime:             "elapsedActiveTime",
	ErrorLimit:                    "errorLimit",
	EventEnable:                   "eventEnable",
	EventState:                    "eventState",
	EventType:                     "eventType",
	ExceptionSchedule:             "exceptionSchedule",
	FaultValues:                   "faultValues",
	FeedbackValue:                 "feedbackValue",
	FileAccessMethod:              "fileAccessMethod",
	FileSize:                      "fileSize",
	FileType:                      "fileType",
	FirmwareRevision:              "firmwareRevision",
	HighLimit:                     "highLimit",
	InactiveText:                  "inactiveText",
	InProcess:                     "inProcess",
	InstanceOf:                    "instanceOf",
	IntegralConstant:              "integralConstant",
	IntegralConstantUnits:         "integralConstantUnits",
	LimitEnable:                   "limitEnable",
	ListOfGroupMembers:            "listOfGroupMembers",
	ListOfObjectPropertyRefs:      "listOfObjectPropertyReferences",
	LocalDate:                     "localDate",
	LocalTime:                     "localTime",
	Location:                      "location",
	LowLimit:                      "lowLimit",
	ManipulatedVariableReference:  "manipulatedVariableReference",
	MaximumOutput:                 "maximumOutput",
	MaxApduLengthAccepted:         "maxApduLengthAccepted",
	MaxInfoFrames:                 "maxInfoFrames",
	MaxMaster:                     "maxMaster",
	MaxPresValue:                  "maxPresValue",
	MinimumOffTime:                "minimumOffTime",
	MinimumOnTime:                 "minimumOnTime",
	MinimumOutput:                 "minimumOutput",
	MinPresValue:                  "minPresValue",
	ModelName:                     "modelName",
	ModificationDate:              "modificationDate",
	NotifyType:                    "notifyType",
	NumberOfApduRetries:           "numberOfApduRetries",
	NumberOfStates:                "numberOfStates",
	ObjectIdentifier:              "objectIdentifier",
	ObjectList:                    "objectList",
	ObjectName:                    "objectName",
	ObjectPropertyReference:       "objectPropertyReference",
	ObjectTypeProperty:            "objectType",
	Optional:                      "optional",
	OutOfService:                  "outOfService",
	OutputUnits:                   "outputUnits",
	EventParameters:               "eventParameters",
	Polarity:                      "polarity",
	PresentValue:                  "presentValue",
	Priority:                      "priority",
	PriorityArray:                 "priorityArray",
	PriorityForWriting:            "priorityForWriting",
	ProcessIdentifier:             "processIdentifier",
	ProgramChange:                 "programChange",
	ProgramLocation:               "programLocation",
	ProgramState:                  "programState",
	ProportionalConstant:          "proportionalConstant",
	ProportionalConstantUnits:     "proportionalConstantUnits",
	ProtocolObjectTypesSupported:  "protocolObjectTypesSupported",
	ProtocolServicesSupported:     "protocolServicesSupported",
	ProtocolVersion:               "protocolVersion",
	ReadOnly:                      "readOnly",
	ReasonForHalt:                 "reasonForHalt",
	RecipientList:                 "recipientList",
	Reliability:                   "reliability",
	RelinquishDefault:             "relinquishDefault",
	Required:                      "required",
	Resolution:                    "resolution",
	SegmentationSupported:         "segmentationSupported",
	Setpoint:                      "setpoint",
	SetpointReference:             "setpointReference",
	StateText:                     "stateText",
	StatusFlags:                   "statusFlags",
	SystemStatus:                  "systemStatus",
	TimeDelay:                     "timeDelay",
	TimeOfActiveTimeReset:         "timeOfActiveTimeReset",
	TimeOfStateCountReset:         "timeOfStateCountReset",
	TimeSynchronizationRecipients: "timeSynchronizationRecipients",
	Units:                         "units",
	UpdateInterval:                "updateInterval",
	UtcOffset:                     "utcOffset",
	VendorIdentifier:              "vendorIdentifier",
	VendorName:                    "vendorName",
	VtClassesSupported:            "vtClassesSupported",
	WeeklySchedule:                "weeklySchedule",
	AttemptedSamples:              "attemptedSamples",
	AverageValue:                  "averageValue",
	BufferSize:                    "bufferSize",
	ClientCovIncrement:            "clientCovIncrement",
	CovResubscriptionInterval:     "covResubscriptionInterval",
	EventTimeStamps:               "eventTimeStamps",
	LogBuffer:                     "logBuffer",
	LogDeviceObjectProperty:       "logDeviceObjectProperty",
	Enable:                        "enable",
	LogInterval:                   "logInterval",
	MaximumValue:                  "maximumValue",
	MinimumValue:                  "minimumValue",
	NotificationThreshold:         "notificationThreshold",
	ProtocolRevision:              "protocolRevision",
	RecordsSinceNotification:      "recordsSinceNotification",
	RecordCount:                   "recordCount",
	StartTime:                     "startTime",
	StopTime:                      "stopTime",
	StopWhenFull:                  "stopWhenFull",
	TotalRecordCount:              "totalRecordCount",
	ValidSamples:                  "validSamples",
	WindowInterval:                "windowInterval",
	WindowSamples:                 "windowSamples",
	MaximumValueTimestamp:         "maximumValueTimestamp",
	MinimumValueTimestamp:         "minimumValueTimestamp",
	VarianceValue:                 "varianceValue",
	ActiveCovSubscriptions:        "activeCovSubscriptions",
	BackupFailureTimeout:          "backupFailureTimeout",
	ConfigurationFiles:            "configurationFiles",
	DatabaseRevision:              "databaseRevision",
	DirectReading:                 "directReading",
	LastRestoreTime:               "lastRestoreTime",
	MaintenanceRequired:           "maintenanceRequired",
	MemberOf:                      "memberOf",
	Mode:                          "mode",
	OperationExpected:             "operationExpected",
	Setting:                       "setting",
	Silenced:                      "silenced",
	TrackingValue:                 "trackingValue",
	ZoneMembers:                   "zoneMembers",
	LifeSafetyAlarmValues:         "lifeSafetyAlarmValues",
	MaxSegmentsAccepted:           "maxSegmentsAccepted",
	ProfileName:                   "profileName",
	ScheduleDefault:               "scheduleDefault",
	StructuredObjectList:          "structuredObjectList",
	PropertyList:                  "propertyList",
}

var propertyTypeAliases = map[string]PropertyType{
	"pv":   PresentValue,
	"name": ObjectName,
	"desc": Description,
	"sf":   StatusFlags,
	"oos":  OutOfService,
	"pa":   PriorityArray,
	"rd":   RelinquishDefault,
}

var propertyTypesByKey = func() map[string]PropertyType {
	m := make(map[string]PropertyType, len(propertyTypeNames)+len(propertyTypeAliases))
	for p, name := range propertyTypeNames {
		m[nameKey(name)] = p
	}
	for alias, p := range propertyTypeAliases {
		m[alias] = p
	}
	return m
}()

func (p PropertyType) String() string {
	if name, ok := propertyTypeNames[p]; ok {
		return name
	}
	return strconv.FormatUint(uint64(p), 10)
}

//ParsePropertyType accepts a name (presentValue, present-value, pv) or a
//number
func ParsePropertyType(s string) (PropertyType, error) {
	if n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32); err == nil {
		return PropertyType(n), nil
	}
	if p, ok := propertyTypesByKey[nameKey(s)]; ok {
		return p, nil
	}
	return 0, fmt.Errorf("unknown property %q", s)
}
