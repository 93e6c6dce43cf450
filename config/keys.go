package config

// Keys read by oscd, with their defaults.
const (
	UDPAddrKey        = "osc.udp.addr"
	UDPAddrDefault    = ":10000"
	UDPReplyPortKey   = "osc.udp.reply_port"
	TCPAddrKey        = "osc.tcp.addr"
	SerialDeviceKey   = "osc.serial.device"
	BufferSizeKey     = "osc.buffer.size"
	BufferSizeDefault = 512
	InSizeKey         = "osc.buffer.in"
	InSizeDefault     = 8192
	LockTimeoutKey    = "osc.lock.timeout"
	ReadTimeoutKey    = "osc.read.timeout"
	AsyncIntervalKey  = "osc.async.interval"
	AsyncChannelsKey  = "osc.async.channels"
	BundleDepthKey    = "osc.bundle.depth"
	BundleDepthDef    = 4
	StorePathKey      = "store.path"
	StorePathDefault  = "oscd.db"
	LogLevelKey       = "log.level"
	LogLevelDefault   = "warn"
	LogFormatKey      = "log.format"
	LogFormatDefault  = "text"
)

// Schema types every key oscd reads.
var Schema = map[string]ConfigType{
	UDPAddrKey:       String,
	UDPReplyPortKey:  Int,
	TCPAddrKey:       String,
	SerialDeviceKey:  String,
	BufferSizeKey:    Int,
	InSizeKey:        Int,
	LockTimeoutKey:   Duration,
	ReadTimeoutKey:   Duration,
	AsyncIntervalKey: Duration,
	AsyncChannelsKey: String,
	BundleDepthKey:   Int,
	StorePathKey:     String,
	LogLevelKey:      String,
	LogFormatKey:     String,
}
