package api

const (
	//PrmContent parameter
	PrmContent = "content"
	//PrmTextContent parameter of the portal form
	PrmTextContent = "textContent"
	//PrmSubdomain parameter
	PrmSubdomain = "subdomain"
	//PrmTenant parameter
	PrmTenant = "tenant"
	//PrmDeviceType parameter
	PrmDeviceType = "deviceType"
	//PrmIsRequest parameter
	PrmIsRequest = "isRequest"
	//PrmIsUrgent parameter
	PrmIsUrgent = "isUrgent"
	//PrmVoiceMemo file parameter
	PrmVoiceMemo = "voiceMemo"
	//PrmVoiceFile file parameter of the portal form
	PrmVoiceFile = "voiceFile"
	//PrmFile file parameter
	PrmFile = "file"
)

//FileParams are aliases of the voice file field, the first one present is taken.
//A record holds a single voice memo: the transcript replaces all its placeholders
var FileParams = []string{PrmVoiceMemo, PrmVoiceFile, PrmFile}
