package knowledgebase

// telematicsFaults lists the known telematics device fault codes with their
// remediation text, keyed by code and description.
var telematicsFaults = []row{
	{"128", "Flash memory failure", Entry{Severity: "Critical", Effect: "Hardware failure in flash memory", Action: "Contact Geotab Support for device replacement"}},
	{"129", "Internal clock stopped", Entry{Severity: "Critical", Effect: "Device clock has stopped", Action: "Verify provisioning completion; contact Support if persists"}},
	{"130", "All power removed - device restarted", Entry{Severity: "Informational", Effect: "Device lost and regained power", Action: "Check for unexpected power disconnections or resets"}},
	{"131", "Low voltage in power supply", Entry{Severity: "Warning", Effect: "Power supply voltage is below threshold", Action: "Check vehicle battery voltage and wiring connections"}},
	{"132", "Firmware Update Applied Successfully", Entry{Severity: "Informational", Effect: "Device firmware was updated", Action: "No action required; expected behavior"}},
	{"133", "Device restarted (internal watchdog)", Entry{Severity: "Informational", Effect: "Internal watchdog triggered restart", Action: "Monitor frequency; contact Support if recurring"}},
	{"134", "Device restarted (internal reset)", Entry{Severity: "Informational", Effect: "Internal reset occurred", Action: "Verify power stability to device"}},
	{"135", "Vehicle battery has low voltage", Entry{Severity: "Warning", Effect: "Vehicle battery voltage is low", Action: "Check voltage data in MyGeotab Measurements; test battery"}},
	{"136", "Telematics device unplugged", Entry{Severity: "Informational", Effect: "Device lost power connection", Action: "Verify device is securely installed and plugged in"}},
	{"139", "GPS quality poor", Entry{Severity: "Warning", Effect: "GPS signal quality is degraded", Action: "Check device placement; follow GPS troubleshooting steps"}},
	{"140", "GPS module not responding", Entry{Severity: "Critical", Effect: "GPS chipset not sending messages for 30+ seconds", Action: "May indicate hardware failure; contact Support"}},
	{"145", "GPS antenna unplugged", Entry{Severity: "Warning", Effect: "GPS antenna disconnected", Action: "Contact Support for device replacement"}},
	{"147", "Problem communicating with engine - CAN mode failed", Entry{Severity: "Warning", Effect: "Cannot communicate with engine ECU via CAN bus", Action: "Verify device install and ensure it is secured properly"}},
	{"166", "Collision limit for acceleration exceeded", Entry{Severity: "Warning", Effect: "Possible collision or loose device connection", Action: "Inspect vehicle for damage; verify device is securely mounted"}},
	{"168", "Vehicle warning light is on", Entry{Severity: "Informational", Effect: "Check engine or warning light illuminated", Action: "Verify warning light on vehicle; consult mechanic"}},
	{"172", "Excessive accelerometer events", Entry{Severity: "Warning", Effect: "Accelerometer generating excessive events", Action: "Verify device is securely installed with zip ties"}},
	{"174", "Excessive accelerometer events over threshold", Entry{Severity: "Warning", Effect: "IMU channel disabled due to excessive events", Action: "Verify installation; device reset may be required"}},
	{"175", "Low priority warning light on", Entry{Severity: "Informational", Effect: "Low priority warning light illuminated", Action: "Fault read from vehicle is low priority; monitor"}},
	{"197", "Device disabled in MyAdmin", Entry{Severity: "Informational", Effect: "Subscription suspended or terminated", Action: "Activate rate plan in MyAdmin"}},
	{"265", "Accelerometer disabled due to excessive data", Entry{Severity: "Warning", Effect: "Accelerometer auto-disabled", Action: "Verify device installation and proper mounting"}},
	{"281", "Accelerometer calibration in progress", Entry{Severity: "Informational", Effect: "Device calibrating accelerometer", Action: "Drive with valid GPS and stable orientation to complete"}},
	{"282", "CAN BUS disabled due to excessive errors", Entry{Severity: "Warning", Effect: "CAN bus communication disabled", Action: "Verify device installation; check harness connections"}},
	{"284", "Accident log data disabled", Entry{Severity: "Informational", Effect: "Excessive data threshold reached (300 logs/10 min)", Action: "Verify device mounting; check for vibration sources"}},
	{"287", "Excessive CAN BUS errors - listen only mode", Entry{Severity: "Warning", Effect: "Device in listen-only mode; OBD-II data lost", Action: "Verify install; may need harness swap or professional diagnosis"}},
	{"289", "CAN BUS short detected", Entry{Severity: "Critical", Effect: "Short circuit detected on CAN bus", Action: "Remove device immediately; contact Support"}},
	{"290", "Low voltage - device restarted", Entry{Severity: "Warning", Effect: "Brown-out reset detected", Action: "Check power supply and battery connections"}},
	{"292", "Internal reset initiated", Entry{Severity: "Informational", Effect: "Device brownout at ~7-8V", Action: "Verify power stability to device"}},
	{"296", "Internal stack error", Entry{Severity: "Informational", Effect: "OS error logged internally", Action: "Contact Geotab Support"}},
	{"297", "RAM memory failure", Entry{Severity: "Critical", Effect: "Hardware failure in RAM", Action: "Contact Geotab Support for device replacement"}},
	{"298", "GPS failure fault", Entry{Severity: "Critical", Effect: "Failed GPS version retrieval", Action: "Device may need replacement; contact Support"}},
	{"377", "Device reset due to parameter change", Entry{Severity: "Informational", Effect: "Manual reset after parameter updates", Action: "No action required; expected behavior"}},
	{"449", "Log data buffer overrun", Entry{Severity: "Warning", Effect: "Potential data loss from buffer overflow", Action: "Ensure good cellular coverage in operating area"}},
	{"461", "Network communication fault codes detected", Entry{Severity: "Informational", Effect: "U-code network fault detected", Action: "May indicate harness issue; inspect wiring"}},
	{"462", "GPS config retry fail", Entry{Severity: "Critical", Effect: "Device not tracking correctly", Action: "Device may need replacement; contact Support"}},
	{"463", "IOX-Battery overcurrent condition", Entry{Severity: "Warning", Effect: "IOX drawing excessive current", Action: "Verify IOX installation; check current draw limits"}},
	{"466", "Engine hours stale", Entry{Severity: "Informational", Effect: "ECU not transmitting engine hours data", Action: "Verify CAN bus communication; check ECU compatibility"}},
	{"477", "Disabled due to production test firmware", Entry{Severity: "Informational", Effect: "Device running test firmware", Action: "Should resolve after provisioning; contact Support if persists"}},
	{"478", "Variable length data logging disabled", Entry{Severity: "Informational", Effect: "Excessive data threshold exceeded", Action: "Monitor data volume; verify device installation"}},
	{"487", "IOX power permanently disabled", Entry{Severity: "Critical", Effect: "Power fault persisted ~22m45s", Action: "Power cycle device to attempt recovery; contact Support"}},
	{"488", "SWC chip failure", Entry{Severity: "Warning", Effect: "Possible CAN transceiver hardware failure", Action: "Contact Geotab Support for diagnosis"}},
	{"490", "IOX-Battery power permanently disabled", Entry{Severity: "Critical", Effect: "IOX power fault persisted ~3 minutes", Action: "Power cycle device; contact Support if unresolved"}},
	{"491", "SWC fuse blown", Entry{Severity: "Warning", Effect: "SWC fuse blown or manufacturer-specific fault", Action: "Inspect fuse; contact Support for guidance"}},
	{"614", "Odometer source changed", Entry{Severity: "Informational", Effect: "Odometer reporting source changed", Action: "Verify odometer data accuracy in MyGeotab"}},
	{"615", "Harsh Event data unavailable", Entry{Severity: "Warning", Effect: "Excessive harsh events detected", Action: "Verify device installation is secure"}},
	{"616", "Collision data unavailable", Entry{Severity: "Warning", Effect: "Excessive collision events detected", Action: "May indicate loose installation; verify mounting"}},
}
