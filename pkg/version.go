package quokka

// Version is the released version of the quokka client.
const Version = "0.1.0"
