package bacnet

import "fmt"

//ErrorClass is the class half of an Error-PDU
type ErrorClass uint32

const (
	ErrorClassDevice        ErrorClass = 0
	ErrorClassObject        ErrorClass = 1
	ErrorClassProperty      ErrorClass = 2
	ErrorClassResources     ErrorClass = 3
	ErrorClassSecurity      ErrorClass = 4
	ErrorClassServices      ErrorClass = 5
	ErrorClassVT            ErrorClass = 6
	ErrorClassCommunication ErrorClass = 7
)

var errorClassNames = map[ErrorClass]string{
	ErrorClassDevice:        "device",
	ErrorClassObject:        "object",
	ErrorClassProperty:      "property",
	ErrorClassResources:     "resources",
	ErrorClassSecurity:      "security",
	ErrorClassServices:      "services",
	ErrorClassVT:            "vt",
	ErrorClassCommunication: "communication",
}

func (e ErrorClass) String() string {
	if name, ok := errorClassNames[e]; ok {
		return name
	}
	return fmt.Sprintf("error-class(%d)", uint32(e))
}

//ErrorCode is the code half of an Error-PDU
type ErrorCode uint32

const (
	ErrorCodeOther                             ErrorCode = 0
	ErrorCodeAuthenticationFailed              ErrorCode = 1
	ErrorCodeConfigurationInProgress           ErrorCode = 2
	ErrorCodeDeviceBusy                        ErrorCode = 3
	ErrorCodeInconsistentParameters            ErrorCode = 7
	ErrorCodeInvalidDataType                   ErrorCode = 9
	ErrorCodeNoObjectsOfSpecifiedType          ErrorCode = 17
	ErrorCodeReadAccessDenied                  ErrorCode = 27
	ErrorCodeServiceRequestDenied              ErrorCode = 29
	ErrorCodeTimeout                           ErrorCode = 30
	ErrorCodeUnknownObject                     ErrorCode = 31
	ErrorCodeUnknownProperty                   ErrorCode = 32
	ErrorCodeValueOutOfRange                   ErrorCode = 37
	ErrorCodeWriteAccessDenied                 ErrorCode = 40
	ErrorCodeInvalidArrayIndex                 ErrorCode = 42
	ErrorCodeOptionalFunctionalityNotSupported ErrorCode = 45
	ErrorCodeDatatypeNotSupported              ErrorCode = 47
	ErrorCodePropertyIsNotAnArray              ErrorCode = 50
	ErrorCodeUnknownDevice                     ErrorCode = 70
	ErrorCodeUnknownRoute                      ErrorCode = 71
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCodeOther:                             "other",
	ErrorCodeAuthenticationFailed:              "authentication-failed",
	ErrorCodeConfigurationInProgress:           "configuration-in-progress",
	ErrorCodeDeviceBusy:                        "device-busy",
	ErrorCodeInconsistentParameters:            "inconsistent-parameters",
	ErrorCodeInvalidDataType:                   "invalid-data-type",
	ErrorCodeNoObjectsOfSpecifiedType:          "no-objects-of-specified-type",
	ErrorCodeReadAccessDenied:                  "read-access-denied",
	ErrorCodeServiceRequestDenied:              "service-request-denied",
	ErrorCodeTimeout:                           "timeout",
	ErrorCodeUnknownObject:                     "unknown-object",
	ErrorCodeUnknownProperty:                   "unknown-property",
	ErrorCodeValueOutOfRange:                   "value-out-of-range",
	ErrorCodeWriteAccessDenied:                 "write-access-denied",
	ErrorCodeInvalidArrayIndex:                 "invalid-array-index",
	ErrorCodeOptionalFunctionalityNotSupported: "optional-functionality-not-supported",
	ErrorCodeDatatypeNotSupported:              "datatype-not-supported",
	ErrorCodePropertyIsNotAnArray:              "property-is-not-an-array",
	ErrorCodeUnknownDevice:                     "unknown-device",
	ErrorCodeUnknownRoute:                      "unknown-route",
}

func (e ErrorCode) String() string {
	if name, ok := errorCodeNames[e]; ok {
		return name
	}
	return fmt.Sprintf("error-code(%d)", uint32(e))
}

//RejectReason is carried by a Reject-PDU
type RejectReason byte

const (
	RejectReasonOther                    RejectReason = 0
	RejectReasonBufferOverflow           RejectReason = 1
	RejectReasonInconsistentParameters   RejectReason = 2
	RejectReasonInvalidParameterDataType RejectReason = 3
	RejectReasonInvalidTag               RejectReason = 4
	RejectReasonMissingRequiredParameter RejectReason = 5
	RejectReasonParameterOutOfRange      RejectReason = 6
	RejectReasonTooManyArguments         RejectReason = 7
	RejectReasonUndefinedEnumeration     RejectReason = 8
	RejectReasonUnrecognizedService      RejectReason = 9
)

var rejectReasonNames = map[RejectReason]string{
	RejectReasonOther:                    "other",
	RejectReasonBufferOverflow:           "buffer-overflow",
	RejectReasonInconsistentParameters:   "inconsistent-parameters",
	RejectReasonInvalidParameterDataType: "invalid-parameter-data-type",
	RejectReasonInvalidTag:               "invalid-tag",
	RejectReasonMissingRequiredParameter: "missing-required-parameter",
	RejectReasonParameterOutOfRange:      "parameter-out-of-range",
	RejectReasonTooManyArguments:         "too-many-arguments",
	RejectReasonUndefinedEnumeration:     "undefined-enumeration",
	RejectReasonUnrecognizedService:      "unrecognized-service",
}

func (r RejectReason) String() string {
	if name, ok := rejectReasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("reject-reason(%d)", r)
}

//AbortReason is carried by an Abort-PDU
type AbortReason byte

const (
	AbortReasonOther                         AbortReason = 0
	AbortReasonBufferOverflow                AbortReason = 1
	AbortReasonInvalidApduInThisState        AbortReason = 2
	AbortReasonPreemptedByHigherPriorityTask AbortReason = 3
	AbortReasonSegmentationNotSupported      AbortReason = 4
	AbortReasonSecurityError                 AbortReason = 5
	AbortReasonInsufficientSecurity          AbortReason = 6
	AbortReasonWindowSizeOutOfRange          AbortReason = 7
	AbortReasonApplicationExceededReplyTime  AbortReason = 8
	AbortReasonOutOfResources                AbortReason = 9
	AbortReasonTsmTimeout                    AbortReason = 10
	AbortReasonApduTooLong                   AbortReason = 11
)

var abortReasonNames = map[AbortReason]string{
	AbortReasonOther:                         "other",
	AbortReasonBufferOverflow:                "buffer-overflow",
	AbortReasonInvalidApduInThisState:        "invalid-apdu-in-this-state",
	AbortReasonPreemptedByHigherPriorityTask: "preempted-by-higher-priority-task",
	AbortReasonSegmentationNotSupported:      "segmentation-not-supported",
	AbortReasonSecurityError:                 "security-error",
	AbortReasonInsufficientSecurity:          "insufficient-security",
	AbortReasonWindowSizeOutOfRange:          "window-size-out-of-range",
	AbortReasonApplicationExceededReplyTime:  "application-exceeded-reply-time",
	AbortReasonOutOfResources:                "out-of-resources",
	AbortReasonTsmTimeout:                    "tsm-timeout",
	AbortReasonApduTooLong:                   "apdu-too-long",
}

func (a AbortReason) String() string {
	if name, ok := abortReasonNames[a]; ok {
		return name
	}
	return fmt.Sprintf("abort-reason(%d)", a)
}
