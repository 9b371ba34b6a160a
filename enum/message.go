package enum

type MessageType string

const (
	MessageText   MessageType = "text"
	MessageImage  MessageType = "image"
	MessageFile   MessageType = "file"
	MessageSystem MessageType = "system"
	MessageCall   MessageType = "call"
)

type ExportFormat string

const (
	ExportJSON ExportFormat = "json"
	ExportTXT  ExportFormat = "txt"
	ExportCSV  ExportFormat = "csv"
)

func (f ExportFormat) IsValid() bool {
	switch f {
	case ExportJSON, ExportTXT, ExportCSV:
		return true
	}
	return false
}
