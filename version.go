package kurir

// Version is the library version, also reported in the default User-Agent.
const Version = "0.1.0"
