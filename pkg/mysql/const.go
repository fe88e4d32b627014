// Copyright 2024 - 2025 SQLTap Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mysql

// Capability flags exchanged during the handshake. The server announces
// its set in the greeting, the client answers with its own, and the
// session operates under the intersection.
type Capability uint32

const (
	CLIENT_LONG_PASSWORD                  Capability = 0x00000001
	CLIENT_FOUND_ROWS                     Capability = 0x00000002
	CLIENT_LONG_FLAG                      Capability = 0x00000004
	CLIENT_CONNECT_WITH_DB                Capability = 0x00000008
	CLIENT_NO_SCHEMA                      Capability = 0x00000010
	CLIENT_COMPRESS                       Capability = 0x00000020
	CLIENT_ODBC                           Capability = 0x00000040
	CLIENT_LOCAL_FILES                    Capability = 0x00000080
	CLIENT_IGNORE_SPACE                   Capability = 0x00000100
	CLIENT_PROTOCOL_41                    Capability = 0x00000200
	CLIENT_INTERACTIVE                    Capability = 0x00000400
	CLIENT_SSL                            Capability = 0x00000800
	CLIENT_IGNORE_SIGPIPE                 Capability = 0x00001000
	CLIENT_TRANSACTIONS                   Capability = 0x00002000
	CLIENT_RESERVED                       Capability = 0x00004000
	CLIENT_SECURE_CONNECTION              Capability = 0x00008000
	CLIENT_MULTI_STATEMENTS               Capability = 0x00010000
	CLIENT_MULTI_RESULTS                  Capability = 0x00020000
	CLIENT_PS_MULTI_RESULTS               Capability = 0x00040000
	CLIENT_PLUGIN_AUTH                    Capability = 0x00080000
	CLIENT_CONNECT_ATTRS                  Capability = 0x00100000
	CLIENT_PLUGIN_AUTH_LENENC_CLIENT_DATA Capability = 0x00200000
	CLIENT_DEPRECATE_EOF                  Capability = 0x01000000
)

// Command codes, the first payload byte of every command-phase client
// packet.
type Command uint8

const (
	COM_SLEEP               Command = 0x00
	COM_QUIT                Command = 0x01
	COM_INIT_DB             Command = 0x02
	COM_QUERY               Command = 0x03
	COM_FIELD_LIST          Command = 0x04
	COM_CREATE_DB           Command = 0x05
	COM_DROP_DB             Command = 0x06
	COM_REFRESH             Command = 0x07
	COM_SHUTDOWN            Command = 0x08
	COM_STATISTICS          Command = 0x09
	COM_PROCESS_INFO        Command = 0x0a
	COM_CONNECT             Command = 0x0b
	COM_PROCESS_KILL        Command = 0x0c
	COM_DEBUG               Command = 0x0d
	COM_PING                Command = 0x0e
	COM_TIME                Command = 0x0f
	COM_DELAYED_INSERT      Command = 0x10
	COM_CHANGE_USER         Command = 0x11
	COM_STMT_PREPARE        Command = 0x16
	COM_STMT_EXECUTE        Command = 0x17
	COM_STMT_SEND_LONG_DATA Command = 0x18
	COM_STMT_CLOSE          Command = 0x19
	COM_STMT_RESET          Command = 0x1a
	COM_SET_OPTION          Command = 0x1b
	COM_STMT_FETCH          Command = 0x1c
	COM_DAEMON              Command = 0x1d
	COM_RESET_CONNECTION    Command = 0x1f

	// COM_NULL is the sentinel decoded from an empty command buffer. It
	// never appears on the wire.
	COM_NULL Command = 0xff
)

// First-byte markers of server responses.
const (
	OKHeader         byte = 0x00
	ErrHeader        byte = 0xff
	EOFHeader        byte = 0xfe
	AuthSwitchHeader byte = 0xfe
)

// Server status flags carried by OK packets.
const (
	SERVER_STATUS_IN_TRANS           uint16 = 0x0001
	SERVER_STATUS_AUTOCOMMIT         uint16 = 0x0002
	SERVER_MORE_RESULTS_EXISTS       uint16 = 0x0008
	SERVER_STATUS_NO_GOOD_INDEX_USED uint16 = 0x0010
	SERVER_STATUS_NO_INDEX_USED      uint16 = 0x0020
	SERVER_STATUS_CURSOR_EXISTS      uint16 = 0x0040
	SERVER_STATUS_LAST_ROW_SENT      uint16 = 0x0080
	SERVER_STATUS_DB_DROPPED         uint16 = 0x0100
)

// AuthNativePassword is the classic challenge/response plugin; greetings
// and auth switch requests name it explicitly.
const AuthNativePassword = "mysql_native_password"

// String names the command for logs. Unknown codes render as com_unknown.
func (c Command) String() string {
	switch c {
	case COM_SLEEP:
		return "com_sleep"
	case COM_QUIT:
		return "com_quit"
	case COM_INIT_DB:
		return "com_init_db"
	case COM_QUERY:
		return "com_query"
	case COM_FIELD_LIST:
		return "com_field_list"
	case COM_CREATE_DB:
		return "com_create_db"
	case COM_DROP_DB:
		return "com_drop_db"
	case COM_REFRESH:
		return "com_refresh"
	case COM_SHUTDOWN:
		return "com_shutdown"
	case COM_STATISTICS:
		return "com_statistics"
	case COM_PROCESS_INFO:
		return "com_process_info"
	case COM_CONNECT:
		return "com_connect"
	case COM_PROCESS_KILL:
		return "com_process_kill"
	case COM_DEBUG:
		return "com_debug"
	case COM_PING:
		return "com_ping"
	case COM_TIME:
		return "com_time"
	case COM_DELAYED_INSERT:
		return "com_delayed_insert"
	case COM_CHANGE_USER:
		return "com_change_user"
	case COM_STMT_PREPARE:
		return "com_stmt_prepare"
	case COM_STMT_EXECUTE:
		return "com_stmt_execute"
	case COM_STMT_SEND_LONG_DATA:
		return "com_stmt_send_long_data"
	case COM_STMT_CLOSE:
		return "com_stmt_close"
	case COM_STMT_RESET:
		return "com_stmt_reset"
	case COM_SET_OPTION:
		return "com_set_option"
	case COM_STMT_FETCH:
		return "com_stmt_fetch"
	case COM_DAEMON:
		return "com_daemon"
	case COM_RESET_CONNECTION:
		return "com_reset_connection"
	case COM_NULL:
		return "com_null"
	default:
		return "com_unknown"
	}
}
