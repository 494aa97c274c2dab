package wire

// ReasonCode is the MQTT 5 one-byte reason/return code carried by CONNACK,
// the PUBACK/PUBREC/PUBREL/PUBCOMP acks, SUBACK/UNSUBACK, DISCONNECT and
// AUTH. MQTT 3.1.1 packets that carry a return code reuse the low end of
// this same space (0x00-0x05).
type ReasonCode byte

const (
	ReasonSuccess                   ReasonCode = 0x00
	ReasonNormalDisconnection       ReasonCode = 0x00
	ReasonGrantedQoS0               ReasonCode = 0x00
	ReasonGrantedQoS1               ReasonCode = 0x01
	ReasonGrantedQoS2               ReasonCode = 0x02
	ReasonDisconnectWithWillMessage ReasonCode = 0x04
	ReasonNoMatchingSubscribers     ReasonCode = 0x10
	ReasonNoSubscriptionExisted     ReasonCode = 0x11
	ReasonContinueAuthentication    ReasonCode = 0x18
	ReasonReAuthenticate            ReasonCode = 0x19

	ReasonUnspecifiedError                    ReasonCode = 0x80
	ReasonMalformedPacket                      ReasonCode = 0x81
	ReasonProtocolError                        ReasonCode = 0x82
	ReasonImplementationSpecificError          ReasonCode = 0x83
	ReasonUnsupportedProtocolVersion           ReasonCode = 0x84
	ReasonClientIdentifierNotValid             ReasonCode = 0x85
	ReasonBadUsernameOrPassword                ReasonCode = 0x86
	ReasonNotAuthorized                        ReasonCode = 0x87
	ReasonServerUnavailable                    ReasonCode = 0x88
	ReasonServerBusy                           ReasonCode = 0x89
	ReasonBanned                               ReasonCode = 0x8A
	ReasonServerShuttingDown                   ReasonCode = 0x8B
	ReasonBadAuthenticationMethod              ReasonCode = 0x8C
	ReasonKeepAliveTimeout                     ReasonCode = 0x8D
	ReasonSessionTakenOver                     ReasonCode = 0x8E
	ReasonTopicFilterInvalid                   ReasonCode = 0x8F
	ReasonTopicNameInvalid                     ReasonCode = 0x90
	ReasonPacketIdentifierInUse                ReasonCode = 0x91
	ReasonPacketIdentifierNotFound              ReasonCode = 0x92
	ReasonReceiveMaximumExceeded                ReasonCode = 0x93
	ReasonTopicAliasInvalid                     ReasonCode = 0x94
	ReasonPacketTooLarge                        ReasonCode = 0x95
	ReasonMessageRateTooHigh                    ReasonCode = 0x96
	ReasonQuotaExceeded                         ReasonCode = 0x97
	ReasonAdministrativeAction                  ReasonCode = 0x98
	ReasonPayloadFormatInvalid                  ReasonCode = 0x99
	ReasonRetainNotSupported                     ReasonCode = 0x9A
	ReasonQoSNotSupported                        ReasonCode = 0x9B
	ReasonUseAnotherServer                       ReasonCode = 0x9C
	ReasonServerMoved                            ReasonCode = 0x9D
	ReasonSharedSubscriptionsNotSupported        ReasonCode = 0x9E
	ReasonConnectionRateExceeded                 ReasonCode = 0x9F
	ReasonMaximumConnectTime                     ReasonCode = 0xA0
	ReasonSubscriptionIdentifiersNotSupported    ReasonCode = 0xA1
	ReasonWildcardSubscriptionsNotSupported      ReasonCode = 0xA2
)
