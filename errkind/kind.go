// Copyright 2021 The xfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package errkind

import "strconv"

// A Kind is a transfer error kind. The numeric values are the transfer
// engine's native error numbers, so a Kind may be compared with error
// numbers reported by other tools speaking the same taxonomy.
//
// OK is the sentinel for a successful transfer. Other is the catch-all
// for a native number that has no entry in the table.
type Kind int

const (
	Other Kind = -1

	OK                      Kind = 0
	UnsupportedProtocol     Kind = 1
	FailedInit              Kind = 2
	URLMalformat            Kind = 3
	URLMalformatUser        Kind = 4
	CouldntResolveProxy     Kind = 5
	CouldntResolveHost      Kind = 6
	CouldntConnect          Kind = 7
	FTPWeirdServerReply     Kind = 8
	RemoteAccessDenied      Kind = 9
	FTPAcceptFailed         Kind = 10
	FTPWeirdPassReply       Kind = 11
	FTPAcceptTimeout        Kind = 12
	FTPWeirdPasvReply       Kind = 13
	FTPWeird227Format       Kind = 14
	FTPCantGetHost          Kind = 15
	HTTP2                   Kind = 16
	FTPCouldntSetType       Kind = 17
	PartialFile             Kind = 18
	FTPCouldntRetrFile      Kind = 19
	QuoteError              Kind = 21
	HTTPReturnedError       Kind = 22
	WriteError              Kind = 23
	UploadFailed            Kind = 25
	ReadError               Kind = 26
	OutOfMemory             Kind = 27
	OperationTimedout       Kind = 28
	FTPPortFailed           Kind = 30
	FTPCouldntUseRest       Kind = 31
	RangeError              Kind = 33
	HTTPPostError           Kind = 34
	SSLConnectError         Kind = 35
	BadDownloadResume       Kind = 36
	FileCouldntReadFile     Kind = 37
	LDAPCannotBind          Kind = 38
	LDAPSearchFailed        Kind = 39
	FunctionNotFound        Kind = 41
	AbortedByCallback       Kind = 42
	BadFunctionArgument     Kind = 43
	InterfaceFailed         Kind = 45
	TooManyRedirects        Kind = 47
	UnknownTelnetOption     Kind = 48
	TelnetOptionSyntax      Kind = 49
	GotNothing              Kind = 52
	SSLEngineNotFound       Kind = 53
	SSLEngineSetFailed      Kind = 54
	SendError               Kind = 55
	RecvError               Kind = 56
	SSLCertProblem          Kind = 58
	SSLCipher               Kind = 59
	SSLCACert               Kind = 60
	BadContentEncoding      Kind = 61
	LDAPInvalidURL          Kind = 62
	FilesizeExceeded        Kind = 63
	UseSSLFailed            Kind = 64
	SendFailRewind          Kind = 65
	SSLEngineInitFailed     Kind = 66
	LoginDenied             Kind = 67
	TFTPNotFound            Kind = 68
	TFTPPerm                Kind = 69
	RemoteDiskFull          Kind = 70
	TFTPIllegal             Kind = 71
	TFTPUnknownID           Kind = 72
	RemoteFileExists        Kind = 73
	TFTPNoSuchUser          Kind = 74
	ConvFailed              Kind = 75
	ConvReqd                Kind = 76
	SSLCACertBadFile        Kind = 77
	RemoteFileNotFound      Kind = 78
	SSH                     Kind = 79
	SSLShutdownFailed       Kind = 80
	Again                   Kind = 81
	SSLCRLBadFile           Kind = 82
	SSLIssuerError          Kind = 83
	FTPPretFailed           Kind = 84
	RTSPCSeqError           Kind = 85
	RTSPSessionError        Kind = 86
	FTPBadFileList          Kind = 87
	ChunkFailed             Kind = 88
	NoConnectionAvailable   Kind = 89
	SSLPinnedPubKeyNotMatch Kind = 90
	SSLInvalidCertStatus    Kind = 91
	HTTP2Stream             Kind = 92
	RecursiveAPICall        Kind = 93
	AuthError               Kind = 94
	HTTP3                   Kind = 95
	QUICConnectError        Kind = 96
	Proxy                   Kind = 97
	SSLClientCert           Kind = 98
	UnrecoverablePoll       Kind = 99
	TooLarge                Kind = 100
	ECHRequired             Kind = 101
)

var names = map[Kind]string{
	Other:                   "OTHER",
	OK:                      "OK",
	UnsupportedProtocol:     "UNSUPPORTED_PROTOCOL",
	FailedInit:              "FAILED_INIT",
	URLMalformat:            "URL_MALFORMAT",
	URLMalformatUser:        "URL_MALFORMAT_USER",
	CouldntResolveProxy:     "COULDNT_RESOLVE_PROXY",
	CouldntResolveHost:      "COULDNT_RESOLVE_HOST",
	CouldntConnect:          "COULDNT_CONNECT",
	FTPWeirdServerReply:     "FTP_WEIRD_SERVER_REPLY",
	RemoteAccessDenied:      "REMOTE_ACCESS_DENIED",
	FTPAcceptFailed:         "FTP_ACCEPT_FAILED",
	FTPWeirdPassReply:       "FTP_WEIRD_PASS_REPLY",
	FTPAcceptTimeout:        "FTP_ACCEPT_TIMEOUT",
	FTPWeirdPasvReply:       "FTP_WEIRD_PASV_REPLY",
	FTPWeird227Format:       "FTP_WEIRD_227_FORMAT",
	FTPCantGetHost:          "FTP_CANT_GET_HOST",
	HTTP2:                   "HTTP2",
	FTPCouldntSetType:       "FTP_COULDNT_SET_TYPE",
	PartialFile:             "PARTIAL_FILE",
	FTPCouldntRetrFile:      "FTP_COULDNT_RETR_FILE",
	QuoteError:              "QUOTE_ERROR",
	HTTPReturnedError:       "HTTP_RETURNED_ERROR",
	WriteError:              "WRITE_ERROR",
	UploadFailed:            "UPLOAD_FAILED",
	ReadError:               "READ_ERROR",
	OutOfMemory:             "OUT_OF_MEMORY",
	OperationTimedout:       "OPERATION_TIMEDOUT",
	FTPPortFailed:           "FTP_PORT_FAILED",
	FTPCouldntUseRest:       "FTP_COULDNT_USE_REST",
	RangeError:              "RANGE_ERROR",
	HTTPPostError:           "HTTP_POST_ERROR",
	SSLConnectError:         "SSL_CONNECT_ERROR",
	BadDownloadResume:       "BAD_DOWNLOAD_RESUME",
	FileCouldntReadFile:     "FILE_COULDNT_READ_FILE",
	LDAPCannotBind:          "LDAP_CANNOT_BIND",
	LDAPSearchFailed:        "LDAP_SEARCH_FAILED",
	FunctionNotFound:        "FUNCTION_NOT_FOUND",
	AbortedByCallback:       "ABORTED_BY_CALLBACK",
	BadFunctionArgument:     "BAD_FUNCTION_ARGUMENT",
	InterfaceFailed:         "INTERFACE_FAILED",
	TooManyRedirects:        "TOO_MANY_REDIRECTS",
	UnknownTelnetOption:     "UNKNOWN_TELNET_OPTION",
	TelnetOptionSyntax:      "TELNET_OPTION_SYNTAX",
	GotNothing:              "GOT_NOTHING",
	SSLEngineNotFound:       "SSL_ENGINE_NOTFOUND",
	SSLEngineSetFailed:      "SSL_ENGINE_SETFAILED",
	SendError:               "SEND_ERROR",
	RecvError:               "RECV_ERROR",
	SSLCertProblem:          "SSL_CERTPROBLEM",
	SSLCipher:               "SSL_CIPHER",
	SSLCACert:               "SSL_CACERT",
	BadContentEncoding:      "BAD_CONTENT_ENCODING",
	LDAPInvalidURL:          "LDAP_INVALID_URL",
	FilesizeExceeded:        "FILESIZE_EXCEEDED",
	UseSSLFailed:            "USE_SSL_FAILED",
	SendFailRewind:          "SEND_FAIL_REWIND",
	SSLEngineInitFailed:     "SSL_ENGINE_INITFAILED",
	LoginDenied:             "LOGIN_DENIED",
	TFTPNotFound:            "TFTP_NOTFOUND",
	TFTPPerm:                "TFTP_PERM",
	RemoteDiskFull:          "REMOTE_DISK_FULL",
	TFTPIllegal:             "TFTP_ILLEGAL",
	TFTPUnknownID:           "TFTP_UNKNOWNID",
	RemoteFileExists:        "REMOTE_FILE_EXISTS",
	TFTPNoSuchUser:          "TFTP_NOSUCHUSER",
	ConvFailed:              "CONV_FAILED",
	ConvReqd:                "CONV_REQD",
	SSLCACertBadFile:        "SSL_CACERT_BADFILE",
	RemoteFileNotFound:      "REMOTE_FILE_NOT_FOUND",
	SSH:                     "SSH",
	SSLShutdownFailed:       "SSL_SHUTDOWN_FAILED",
	Again:                   "AGAIN",
	SSLCRLBadFile:           "SSL_CRL_BADFILE",
	SSLIssuerError:          "SSL_ISSUER_ERROR",
	FTPPretFailed:           "FTP_PRET_FAILED",
	RTSPCSeqError:           "RTSP_CSEQ_ERROR",
	RTSPSessionError:        "RTSP_SESSION_ERROR",
	FTPBadFileList:          "FTP_BAD_FILE_LIST",
	ChunkFailed:             "CHUNK_FAILED",
	NoConnectionAvailable:   "NO_CONNECTION_AVAILABLE",
	SSLPinnedPubKeyNotMatch: "SSL_PINNED_PUBKEY_NOT_MATCH",
	SSLInvalidCertStatus:    "SSL_INVALID_CERT_STATUS",
	HTTP2Stream:             "HTTP2_STREAM",
	RecursiveAPICall:        "RECURSIVE_API_CALL",
	AuthError:               "AUTH_ERROR",
	HTTP3:                   "HTTP3",
	QUICConnectError:        "QUIC_CONNECT_ERROR",
	Proxy:                   "PROXY",
	SSLClientCert:           "SSL_CLIENT_CERT",
	UnrecoverablePoll:       "UNRECOVERABLE_POLL",
	TooLarge:                "TOO_LARGE",
	ECHRequired:             "ECH_REQUIRED",
}

// continuable lists the kinds worth another attempt. Everything else is
// terminal.
var continuable = map[Kind]bool{
	CouldntResolveHost: true,
	CouldntConnect:     true,
	HTTPReturnedError:  true,
	ReadError:          true,
	OperationTimedout:  true,
	HTTPPostError:      true,
	SSLConnectError:    true,
}

// FromCode returns the Kind for a native error number. A number missing
// from the table yields Other.
func FromCode(code int) Kind {
	k := Kind(code)
	if _, ok := names[k]; ok {
		return k
	}
	return Other
}

// Known reports whether k is an entry of the native table (Other
// included).
func (k Kind) Known() bool {
	_, ok := names[k]
	return ok
}

// String returns the native name of the kind, for example
// "COULDNT_CONNECT".
func (k Kind) String() string {
	if name, ok := names[k]; ok {
		return name
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Continuable reports whether a transfer that failed with kind k may be
// attempted again with some prospect of success.
func Continuable(k Kind) bool {
	return continuable[k]
}

// ContinuableKinds returns the continuable set in ascending order.
func ContinuableKinds() []Kind {
	return []Kind{
		CouldntResolveHost,
		CouldntConnect,
		HTTPReturnedError,
		ReadError,
		OperationTimedout,
		HTTPPostError,
		SSLConnectError,
	}
}
