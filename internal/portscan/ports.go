package portscan

// Port is one catalogue entry.
type Port struct {
	Number  int
	Service string
}

var catalogue = []Port{
	{21, "FTP"},
	{22, "SSH"},
	{23, "Telnet"},
	{25, "SMTP"},
	{53, "DNS"},
	{80, "HTTP"},
	{110, "POP3"},
	{111, "RPC"},
	{135, "MSRPC"},
	{139, "NetBIOS"},
	{143, "IMAP"},
	{443, "HTTPS"},
	{445, "SMB"},
	{993, "IMAPS"},
	{995, "POP3S"},
	{1433, "MSSQL"},
	{3306, "MySQL"},
	{3389, "RDP"},
	{5432, "PostgreSQL"},
	{5900, "VNC"},
	{6379, "Redis"},
	{8000, "HTTP-Alt"},
	{8080, "HTTP-Alt"},
	{8443, "HTTPS-Alt"},
	{9200, "ElasticSearch"},
	{25565, "Minecraft"},
	{27017, "MongoDB"},
}

// Select returns the given ports in the order given, taking service names
// from the catalogue where known.
func Select(numbers []int) []Port {
	names := make(map[int]string, len(catalogue))
	for _, p := range catalogue {
		names[p.Number] = p.Service
	}
	out := make([]Port, 0, len(numbers))
	seen := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, Port{Number: n, Service: names[n]})
	}
	return out
}

// Catalogue returns the ordered list of ports a scan covers.
func Catalogue() []Port {
	out := make([]Port, len(catalogue))
	copy(out, catalogue)
	return out
}
