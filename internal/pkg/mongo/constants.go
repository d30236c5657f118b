package mongo

const (
	store     = "portal"
	lockTable = "transcriptionLock"
)

var indexData = []IndexData{
	newIndexData(lockTable, "ID", true)}
