package bacnet

import "fmt"

//Datatype describes how a property value is encoded. For arrays Type is
//the element type.
type Datatype struct {
	Type  PropertyValueType
	Array bool
}

func (d Datatype) String() string {
	if d.Array {
		return fmt.Sprintf("ArrayOf(%s)", d.Type)
	}
	return d.Type.String()
}

func scalar(t PropertyValueType) Datatype  { return Datatype{Type: t} }
func arrayOf(t PropertyValueType) Datatype { return Datatype{Type: t, Array: true} }

type propertyTable map[PropertyType]Datatype

//Schema maps (object type, property) pairs to the datatype of the
//property value. The zero value knows nothing; use DefaultSchema.
type Schema struct {
	common  propertyTable
	objects map[ObjectType]propertyTable
}

//Resolve returns the datatype of property p on objects of type o.
//Properties specific to the object type shadow the common ones; object
//types neither standard nor registered resolve nothing.
func (s *Schema) Resolve(o ObjectType, p PropertyType) (Datatype, bool) {
	t, registered := s.objects[o]
	if d, ok := t[p]; ok {
		return d, true
	}
	if _, standard := objectTypeNames[o]; !standard && !registered {
		return Datatype{}, false
	}
	d, ok := s.common[p]
	return d, ok
}

//Register adds or overrides the datatype of property p for object type o
func (s *Schema) Register(o ObjectType, p PropertyType, d Datatype) {
	if s.objects == nil {
		s.objects = make(map[ObjectType]propertyTable)
	}
	t, ok := s.objects[o]
	if !ok {
		t = make(propertyTable)
		s.objects[o] = t
	}
	t[p] = d
}

func merge(tables ...propertyTable) propertyTable {
	m := make(propertyTable)
	for _, t := range tables {
		for k, v := range t {
			m[k] = v
		}
	}
	return m
}

var commonProperties = propertyTable{
	ObjectIdentifier:   scalar(TypeObjectID),
	ObjectName:         scalar(TypeCharacterString),
	ObjectTypeProperty: scalar(TypeEnumerated),
	Description:        scalar(TypeCharacterString),
	PropertyList:       arrayOf(TypeEnumerated),
	ProfileName:        scalar(TypeCharacterString),
}

var statusProperties = propertyTable{
	StatusFlags:  scalar(TypeBitString),
	EventState:   scalar(TypeEnumerated),
	Reliability:  scalar(TypeEnumerated),
	OutOfService: scalar(TypeBoolean),
}

var eventProperties = propertyTable{
	TimeDelay:                 scalar(TypeUnsignedInt),
	NotificationClassProperty: scalar(TypeUnsignedInt),
	EventEnable:               scalar(TypeBitString),
	AckedTransitions:          scalar(TypeBitString),
	NotifyType:                scalar(TypeEnumerated),
}

var analogProperties = propertyTable{
	PresentValue:   scalar(TypeReal),
	Units:          scalar(TypeEnumerated),
	CovIncrement:   scalar(TypeReal),
	HighLimit:      scalar(TypeReal),
	LowLimit:       scalar(TypeReal),
	Deadband:       scalar(TypeReal),
	LimitEnable:    scalar(TypeBitString),
	MinPresValue:   scalar(TypeReal),
	MaxPresValue:   scalar(TypeReal),
	Resolution:     scalar(TypeReal),
	DeviceType:     scalar(TypeCharacterString),
	UpdateInterval: scalar(TypeUnsignedInt),
}

var commandableAnalog = propertyTable{
	PriorityArray:     arrayOf(TypeAny),
	RelinquishDefault: scalar(TypeReal),
}

var binaryProperties = propertyTable{
	PresentValue:          scalar(TypeEnumerated),
	Polarity:              scalar(TypeEnumerated),
	ActiveText:            scalar(TypeCharacterString),
	InactiveText:          scalar(TypeCharacterString),
	ChangeOfStateCount:    scalar(TypeUnsignedInt),
	ElapsedActiveTime:     scalar(TypeUnsignedInt),
	TimeOfStateCountReset: scalar(TypeAny),
	TimeOfActiveTimeReset: scalar(TypeAny),
	AlarmValue:            scalar(TypeEnumerated),
	DeviceType:            scalar(TypeCharacterString),
	MinimumOffTime:        scalar(TypeUnsignedInt),
	MinimumOnTime:         scalar(TypeUnsignedInt),
	FeedbackValue:         scalar(TypeEnumerated),
}

var commandableBinary = propertyTable{
	PriorityArray:     arrayOf(TypeAny),
	RelinquishDefault: scalar(TypeEnumerated),
}

var multiStateProperties = propertyTable{
	PresentValue:   scalar(TypeUnsignedInt),
	NumberOfStates: scalar(TypeUnsignedInt),
	StateText:      arrayOf(TypeCharacterString),
	AlarmValues:    arrayOf(TypeUnsignedInt),
	FaultValues:    arrayOf(TypeUnsignedInt),
	DeviceType:     scalar(TypeCharacterString),
	FeedbackValue:  scalar(TypeUnsignedInt),
}

var commandableMultiState = propertyTable{
	PriorityArray:     arrayOf(TypeAny),
	RelinquishDefault: scalar(TypeUnsignedInt),
}

var deviceProperties = propertyTable{
	SystemStatus:                 scalar(TypeEnumerated),
	VendorName:                   scalar(TypeCharacterString),
	VendorIdentifier:             scalar(TypeUnsignedInt),
	ModelName:                    scalar(TypeCharacterString),
	FirmwareRevision:             scalar(TypeCharacterString),
	ApplicationSoftwareVersion:   scalar(TypeCharacterString),
	Location:                     scalar(TypeCharacterString),
	ProtocolVersion:              scalar(TypeUnsignedInt),
	ProtocolRevision:             scalar(TypeUnsignedInt),
	ProtocolServicesSupported:    scalar(TypeBitString),
	ProtocolObjectTypesSupported: scalar(TypeBitString),
	ObjectList:                   arrayOf(TypeObjectID),
	StructuredObjectList:         arrayOf(TypeObjectID),
	MaxApduLengthAccepted:        scalar(TypeUnsignedInt),
	SegmentationSupported:        scalar(TypeEnumerated),
	MaxSegmentsAccepted:          scalar(TypeUnsignedInt),
	ApduSegmentTimeout:           scalar(TypeUnsignedInt),
	ApduTimeout:                  scalar(TypeUnsignedInt),
	NumberOfApduRetries:          scalar(TypeUnsignedInt),
	MaxMaster:                    scalar(TypeUnsignedInt),
	MaxInfoFrames:                scalar(TypeUnsignedInt),
	LocalDate:                    scalar(TypeDate),
	LocalTime:                    scalar(TypeTime),
	UtcOffset:                    scalar(TypeSignedInt),
	DaylightSavingsStatus:        scalar(TypeBoolean),
	DatabaseRevision:             scalar(TypeUnsignedInt),
	BackupFailureTimeout:         scalar(TypeUnsignedInt),
	ConfigurationFiles:           arrayOf(TypeObjectID),
	LastRestoreTime:              scalar(TypeAny),
}

var accumulatorProperties = propertyTable{
	PresentValue: scalar(TypeUnsignedInt),
	Units:        scalar(TypeEnumerated),
	MaxPresValue: scalar(TypeUnsignedInt),
	Resolution:   scalar(TypeReal),
	DeviceType:   scalar(TypeCharacterString),
}

var averagingProperties = propertyTable{
	MinimumValue:     scalar(TypeReal),
	AverageValue:     scalar(TypeReal),
	MaximumValue:     scalar(TypeReal),
	VarianceValue:    scalar(TypeReal),
	AttemptedSamples: scalar(TypeUnsignedInt),
	ValidSamples:     scalar(TypeUnsignedInt),
	WindowInterval:   scalar(TypeUnsignedInt),
	WindowSamples:    scalar(TypeUnsignedInt),
}

var loopProperties = propertyTable{
	PresentValue:              scalar(TypeReal),
	OutputUnits:               scalar(TypeEnumerated),
	ControlledVariableValue:   scalar(TypeReal),
	ControlledVariableUnits:   scalar(TypeEnumerated),
	Setpoint:                  scalar(TypeReal),
	Action:                    scalar(TypeEnumerated),
	ProportionalConstant:      scalar(TypeReal),
	ProportionalConstantUnits: scalar(TypeEnumerated),
	IntegralConstant:          scalar(TypeReal),
	IntegralConstantUnits:     scalar(TypeEnumerated),
	DerivativeConstant:        scalar(TypeReal),
	DerivativeConstantUnits:   scalar(TypeEnumerated),
	Bias:                      scalar(TypeReal),
	MaximumOutput:             scalar(TypeReal),
	MinimumOutput:             scalar(TypeReal),
	PriorityForWriting:        scalar(TypeUnsignedInt),
	UpdateInterval:            scalar(TypeUnsignedInt),
	ErrorLimit:                scalar(TypeReal),
}

var fileProperties = propertyTable{
	FileType:         scalar(TypeCharacterString),
	FileSize:         scalar(TypeUnsignedInt),
	ModificationDate: scalar(TypeAny),
	Archive:          scalar(TypeBoolean),
	ReadOnly:         scalar(TypeBoolean),
	FileAccessMethod: scalar(TypeEnumerated),
	RecordCount:      scalar(TypeUnsignedInt),
}

var trendLogProperties = propertyTable{
	Enable:                    scalar(TypeBoolean),
	StopWhenFull:              scalar(TypeBoolean),
	BufferSize:                scalar(TypeUnsignedInt),
	RecordCount:               scalar(TypeUnsignedInt),
	TotalRecordCount:          scalar(TypeUnsignedInt),
	LogInterval:               scalar(TypeUnsignedInt),
	NotificationThreshold:     scalar(TypeUnsignedInt),
	RecordsSinceNotification:  scalar(TypeUnsignedInt),
	ClientCovIncrement:        scalar(TypeAny),
	CovResubscriptionInterval: scalar(TypeUnsignedInt),
}

var scheduleProperties = propertyTable{
	PresentValue:       scalar(TypeAny),
	PriorityForWriting: scalar(TypeUnsignedInt),
	ScheduleDefault:    scalar(TypeAny),
}

var calendarProperties = propertyTable{
	PresentValue: scalar(TypeBoolean),
}

var notificationClassProperties = propertyTable{
	NotificationClassProperty: scalar(TypeUnsignedInt),
	Priority:                  arrayOf(TypeUnsignedInt),
	AckRequired:               scalar(TypeBitString),
}

var programProperties = propertyTable{
	ProgramState:      scalar(TypeEnumerated),
	ProgramChange:     scalar(TypeEnumerated),
	ReasonForHalt:     scalar(TypeEnumerated),
	DescriptionOfHalt: scalar(TypeCharacterString),
	ProgramLocation:   scalar(TypeCharacterString),
	InstanceOf:        scalar(TypeCharacterString),
}

func valueObject(pv PropertyValueType) propertyTable {
	return merge(statusProperties, propertyTable{
		PresentValue:      scalar(pv),
		PriorityArray:     arrayOf(TypeAny),
		RelinquishDefault: scalar(pv),
	})
}

//DefaultSchema returns a fresh schema holding the datatypes of the
//standard properties of the standard object types
func DefaultSchema() *Schema {
	return &Schema{
		common: merge(commonProperties),
		objects: map[ObjectType]propertyTable{
			AnalogInput:  merge(statusProperties, eventProperties, analogProperties),
			AnalogOutput: merge(statusProperties, eventProperties, analogProperties, commandableAnalog),
			AnalogValue:  merge(statusProperties, eventProperties, analogProperties, commandableAnalog),

			BinaryInput:  merge(statusProperties, eventProperties, binaryProperties),
			BinaryOutput: merge(statusProperties, eventProperties, binaryProperties, commandableBinary),
			BinaryValue:  merge(statusProperties, eventProperties, binaryProperties, commandableBinary),

			MultiStateInput:  merge(statusProperties, eventProperties, multiStateProperties),
			MultiStateOutput: merge(statusProperties, eventProperties, multiStateProperties, commandableMultiState),
			MultiStateValue:  merge(statusProperties, eventProperties, multiStateProperties, commandableMultiState),

			BacnetDevice: merge(deviceProperties),

			IntegerValue:         valueObject(TypeSignedInt),
			PositiveIntegerValue: valueObject(TypeUnsignedInt),
			LargeAnalogValue:     valueObject(TypeDouble),
			CharacterstringValue: valueObject(TypeCharacterString),
			OctetstringValue:     valueObject(TypeOctetString),
			BitstringValue:       valueObject(TypeBitString),
			DateValue:            valueObject(TypeDate),
			TimeValue:            valueObject(TypeTime),

			Accumulator: merge(statusProperties, eventProperties, accumulatorProperties),
			Averaging:   merge(averagingProperties),
			Loop:        merge(statusProperties, eventProperties, loopProperties),
			File:        merge(fileProperties),
			Trendlog:    merge(statusProperties, eventProperties, trendLogProperties),
			Schedule:    merge(statusProperties, scheduleProperties),
			Calendar:    merge(calendarProperties),

			NotificationClass: merge(notificationClassProperties),
			Program:           merge(statusProperties, programProperties),
		},
	}
}
